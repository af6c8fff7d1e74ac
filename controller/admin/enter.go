package admin

type ApiGroup struct {
	KnowledgeApi KnowledgeApi
	RoutingApi   RoutingApi
	LearningApi  LearningApi
	CorpusApi    CorpusApi
}
