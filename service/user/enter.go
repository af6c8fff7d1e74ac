package user

type ServiceGroup struct {
	RetrievalService    RetrievalService
	RoutingService      RoutingService
	LearningService     LearningService
	ConversationService ConversationService
	SentimentService    SentimentService
	TriageService       TriageService
	DraftService        DraftService
	ActionService       ActionService
	Validator           Validator
}

func NewServiceGroup() ServiceGroup {
	retrieval := NewRetrievalService()
	learning := NewLearningService()
	routing := NewRoutingService(learning)
	sentiment := NewSentimentService()
	triage := NewTriageService()
	draft := NewDraftService()
	action := NewActionService()

	return ServiceGroup{
		RetrievalService: retrieval,
		RoutingService:   routing,
		LearningService:  learning,
		SentimentService: sentiment,
		TriageService:    triage,
		DraftService:     draft,
		ActionService:    action,
		Validator:        NewValidator(),
		ConversationService: NewConversationService(
			retrieval, routing, learning, sentiment, triage, draft, action,
		),
	}
}
