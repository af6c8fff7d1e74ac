package service

import (
	"github.com/strataops/strata-triage/service/admin"
	"github.com/strataops/strata-triage/service/user"
)

type ServiceGroup struct {
	UserServiceGroup  user.ServiceGroup
	AdminServiceGroup admin.ServiceGroup
}

var Service = new(ServiceGroup)

// Setup builds the service graph. Runs after the global clients exist.
func Setup() {
	Service.UserServiceGroup = user.NewServiceGroup()
	Service.AdminServiceGroup = admin.NewServiceGroup()
}
