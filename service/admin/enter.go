package admin

type ServiceGroup struct {
	KnowledgeService KnowledgeService
}

func NewServiceGroup() ServiceGroup {
	return ServiceGroup{
		KnowledgeService: NewKnowledgeService(),
	}
}
