package enum

type DbType string

const (
	MYSQL  DbType = `mysql`
	SQLITE DbType = `sqlite3`
)

type Msg string

const (
	DefaultSuccessMsg Msg = `ok`
	DefaultFailMsg    Msg = `error`
)

type ResCode int8

const (
	SuccessCode   ResCode = 0
	ErrorCode     ResCode = 1
	AuthErrorCode ResCode = 2
)

// RoutePath is one of the five handling paths a ticket can be routed to.
// A routing decision carries exactly one of these values.
type RoutePath string

const (
	PathImmediateEscalation RoutePath = "immediate_escalation"
	PathAutoRespond         RoutePath = "auto_respond"
	PathAutoRefine          RoutePath = "auto_refine"
	PathGenerateDraft       RoutePath = "generate_draft"
	PathDeepResearch        RoutePath = "deep_research"
)

// RouteReason tags why the cascade picked a path, for the audit record.
type RouteReason string

const (
	ReasonCriticalSeverity  RouteReason = "critical_severity"
	ReasonHighComplexity    RouteReason = "high_complexity"
	ReasonHighConfidence    RouteReason = "high_confidence_match"
	ReasonMediumConfidence  RouteReason = "medium_confidence_match"
	ReasonLowConfidence     RouteReason = "low_confidence_match"
	ReasonNoAdequateMatch   RouteReason = "no_adequate_match"
	ReasonInsufficientData  RouteReason = "insufficient_category_data"
	ReasonManualReviewFlag  RouteReason = "manual_review_flag"
	ReasonOperatorOverride  RouteReason = "operator_override"
)

// Phase is the per-category operating phase of the progressive learning
// tracker. A category only moves forward automatically.
type Phase string

const (
	PhaseManual     Phase = "manual"
	PhaseAssisted   Phase = "assisted"
	PhaseAutonomous Phase = "autonomous"
)

// Severity of a ticket, mapped from triage urgency and platform priority.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Sentiment of a single customer reply.
type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentNegative   Sentiment = "negative"
	SentimentFrustrated Sentiment = "frustrated"
)

// ConversationState is the terminal flag on a conversation row.
type ConversationState string

const (
	ConversationOpen      ConversationState = "open"
	ConversationResolved  ConversationState = "resolved"
	ConversationEscalated ConversationState = "escalated"
)

// EscalationReason records which trigger fired first.
type EscalationReason string

const (
	EscalationExplicitRequest  EscalationReason = "explicit_request"
	EscalationExceededMaxTurns EscalationReason = "exceeded_max_turns"
	EscalationLowConfidence    EscalationReason = "low_confidence"
	EscalationSystemError      EscalationReason = "system_error"
	EscalationRoutedCritical   EscalationReason = "routed_critical"
)

// EntryStatus of a knowledge entry. Entries are never deleted, only
// moved to inactive.
type EntryStatus string

const (
	EntryDraft    EntryStatus = "draft"
	EntryActive   EntryStatus = "active"
	EntryInactive EntryStatus = "inactive"
)

// OutcomeLabel on a training example.
type OutcomeLabel string

const (
	OutcomeSatisfied   OutcomeLabel = "satisfied"
	OutcomeUnsatisfied OutcomeLabel = "unsatisfied"
	OutcomeUnknown     OutcomeLabel = "unknown"
)

// ConversationStatus values understood by the Chatwoot API.
type ConversationStatus string

const (
	ConversationStatusOpen     ConversationStatus = "open"
	ConversationStatusPending  ConversationStatus = "pending"
	ConversationStatusResolved ConversationStatus = "resolved"
	ConversationStatusSnoozed  ConversationStatus = "snoozed"
)

type ChatwootWebhook string

const (
	// A new message from the contact.
	MessageTypeIncoming ChatwootWebhook = "incoming"
	// A message sent from the application side.
	MessageTypeOutgoing ChatwootWebhook = "outgoing"
	// The end user in a conversation.
	SenderTypeContact ChatwootWebhook = "contact"

	EventMessageCreated      ChatwootWebhook = "message_created"
	EventConversationCreated ChatwootWebhook = "conversation_created"
)

// TriageUrgency labels produced by the LLM triage pass.
type TriageUrgency string

const (
	TriageUrgencyCritical TriageUrgency = "critical"
	TriageUrgencyHigh     TriageUrgency = "high"
	TriageUrgencyMedium   TriageUrgency = "medium"
	TriageUrgencyLow      TriageUrgency = "low"
)
