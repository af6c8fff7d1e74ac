package controller

import (
	"github.com/strataops/strata-triage/controller/admin"
	"github.com/strataops/strata-triage/controller/user"
)

var Api = new(ApiGroup)

type ApiGroup struct {
	UserApiGroup  user.ApiGroup
	AdminApiGroup admin.ApiGroup
}
