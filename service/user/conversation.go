package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/internal/redis"
	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// queryContext is the enriched retrieval context accumulated across turns,
// cached in Redis between webhook events.
type queryContext struct {
	Query    string  `json:"query"`
	Category string  `json:"category"`
	EntryKey string  `json:"entry_key"`
	Score    float64 `json:"score"`
}

type ConversationService interface {
	// HandleNewTicket triages a fresh ticket, retrieves, routes it and
	// executes the chosen handling path.
	HandleNewTicket(ctx context.Context, req *common.ChatRequest) error
	// HandleReply advances the state machine by one turn.
	HandleReply(ctx context.Context, req *common.ChatRequest) error
}

type conversationService struct {
	conversationDb *dao.ConversationDb
	knowledgeDb    *dao.KnowledgeDb

	retrieval RetrievalService
	routing   RoutingService
	learning  LearningService
	sentiment SentimentService
	triage    TriageService
	draft     DraftService
	action    ActionService
}

func NewConversationService(
	retrieval RetrievalService,
	routing RoutingService,
	learning LearningService,
	sentiment SentimentService,
	triage TriageService,
	draft DraftService,
	action ActionService,
) *conversationService {
	return &conversationService{
		conversationDb: &dao.ConversationDb{},
		knowledgeDb:    &dao.KnowledgeDb{},
		retrieval:      retrieval,
		routing:        routing,
		learning:       learning,
		sentiment:      sentiment,
		triage:         triage,
		draft:          draft,
		action:         action,
	}
}

// withTicketLock serializes processing per ticket. Concurrent events for the
// same ticket would race the gapless turn-number invariant.
func (s *conversationService) withTicketLock(ctx context.Context, conversationID uint, fn func() error) error {
	if global.RedisClient == nil {
		return fn()
	}

	expiry := time.Duration(global.Config.Redis.LockExpiry) * time.Second
	if expiry <= 0 {
		expiry = 60 * time.Second
	}

	acquired, err := global.RedisClient.AcquireConversationLock(ctx, conversationID, uuid.NewString(), expiry)
	if err != nil {
		return common.Transient("acquire lock for ticket %d: %v", conversationID, err)
	}
	if !acquired {
		return common.Transient("ticket %d is being processed by another worker", conversationID)
	}
	defer func() {
		if err := global.RedisClient.ReleaseConversationLock(context.Background(), conversationID); err != nil {
			global.Log.Warnf("[conversation] releasing lock for ticket %d failed: %v", conversationID, err)
		}
	}()

	return fn()
}

func contextKey(conversationID uint) string {
	return fmt.Sprintf("%s%d", redis.KeyPrefixQueryContext, conversationID)
}

func (s *conversationService) saveContext(ctx context.Context, conversationID uint, qc *queryContext) {
	if global.RedisClient == nil {
		return
	}
	payload, err := json.Marshal(qc)
	if err != nil {
		return
	}
	ttl := utils.GetTTLWithJitter(global.Config.Redis.ContextTTL)
	if err := global.RedisClient.Set(ctx, contextKey(conversationID), payload, ttl).Err(); err != nil {
		global.Log.Warnf("[conversation] caching context for ticket %d failed: %v", conversationID, err)
	}
}

func (s *conversationService) loadContext(ctx context.Context, conversationID uint) *queryContext {
	if global.RedisClient == nil {
		return nil
	}
	raw, err := global.RedisClient.Get(ctx, contextKey(conversationID)).Result()
	if err != nil {
		if !errors.Is(err, redis.ErrNil) {
			global.Log.Warnf("[conversation] loading context for ticket %d failed: %v", conversationID, err)
		}
		return nil
	}
	var qc queryContext
	if err := json.Unmarshal([]byte(raw), &qc); err != nil {
		return nil
	}
	return &qc
}

func (s *conversationService) HandleNewTicket(ctx context.Context, req *common.ChatRequest) error {
	return s.withTicketLock(ctx, req.Conversation.ConversationID, func() error {
		return s.processNewTicket(ctx, req)
	})
}

func (s *conversationService) processNewTicket(ctx context.Context, req *common.ChatRequest) error {
	conversationID := req.Conversation.ConversationID

	triage := s.triage.Classify(ctx, req.Content, req.Conversation.Priority)

	result, err := s.retrieval.HybridSearch(ctx, req.Content, common.RetrievalFilters{Category: triage.Category})
	if err != nil {
		// With retrieval fully down the safest route is a human.
		global.Log.Errorf("[conversation] retrieval for ticket %d failed: %v", conversationID, err)
		return s.action.Escalate(ctx, conversationID, enum.EscalationSystemError,
			"Automated triage failed; please handle manually.")
	}

	var (
		topScore float64
		topEntry *db.KnowledgeEntry
		topKey   string
	)
	if len(result.Candidates) > 0 {
		top := result.Candidates[0]
		topScore = NormalizeScore(top.Score, global.Config.Triage.RrfK)
		entry := top.Entry
		topEntry = &entry
		topKey = entry.EntryKey
	}

	decision, err := s.routing.Route(RouteInput{
		ConversationID: conversationID,
		Category:       triage.Category,
		Severity:       triage.Severity,
		Complexity:     triage.Complexity,
		TopScore:       topScore,
		TopEntryKey:    topKey,
		ManualReview:   utils.InSlice(global.Config.Triage.ManualReviewCategories, triage.Category) != -1,
	})
	if err != nil {
		return fmt.Errorf("route ticket %d: %w", conversationID, err)
	}

	s.saveContext(ctx, conversationID, &queryContext{
		Query:    req.Content,
		Category: triage.Category,
		EntryKey: topKey,
		Score:    topScore,
	})

	return s.executePath(ctx, req, decision, topEntry)
}

func (s *conversationService) executePath(ctx context.Context, req *common.ChatRequest, decision *db.RoutingDecision, entry *db.KnowledgeEntry) error {
	conversationID := req.Conversation.ConversationID

	switch decision.Path {
	case enum.PathImmediateEscalation:
		// Never carries an auto-response side effect.
		return s.action.Escalate(ctx, conversationID, enum.EscalationRoutedCritical,
			fmt.Sprintf("Escalated by triage: %s (severity from routing, score %.2f).", decision.Reason, decision.RetrievalScore))

	case enum.PathAutoRespond:
		s.action.ToggleTyping(conversationID, true)
		defer s.action.ToggleTyping(conversationID, false)

		reply, err := s.draft.GenerateDraft(ctx, req.Content, entry)
		if err != nil {
			return s.failToDraftNote(ctx, req, decision, entry, err)
		}
		if err := s.action.SendReply(ctx, conversationID, reply); err != nil {
			return err
		}
		return s.recordHandled(conversationID, decision, req.Content, entry)

	case enum.PathAutoRefine:
		reply, err := s.draft.GenerateDraft(ctx, req.Content, entry)
		if err != nil {
			return s.failToDraftNote(ctx, req, decision, entry, err)
		}
		refined, err := s.draft.Refine(ctx, req.Content, entry, reply)
		if err != nil {
			refined = reply
		}
		if err := s.action.PostDraftNote(ctx, conversationID, "Refined draft for sign-off:", refined); err != nil {
			return err
		}
		return s.recordHandled(conversationID, decision, req.Content, entry)

	case enum.PathGenerateDraft:
		reply, err := s.draft.GenerateDraft(ctx, req.Content, entry)
		if err != nil {
			return s.failToDraftNote(ctx, req, decision, entry, err)
		}
		if err := s.action.PostDraftNote(ctx, conversationID, "Draft for approval:", reply); err != nil {
			return err
		}
		return s.recordHandled(conversationID, decision, req.Content, entry)

	case enum.PathDeepResearch:
		findings, err := s.draft.Research(ctx, req.Content)
		if err != nil {
			global.Log.Errorf("[conversation] research for ticket %d failed: %v", conversationID, err)
			return s.action.Escalate(ctx, conversationID, enum.EscalationSystemError,
				"No adequate knowledge match and research failed; please handle manually.")
		}
		// Research output always stays behind a human.
		return s.action.PostDraftNote(ctx, conversationID, "Research findings (verify before replying):", findings)

	default:
		return fmt.Errorf("unhandled route path '%s'", decision.Path)
	}
}

// failToDraftNote degrades a failed generation into an escalation so the
// ticket never silently stalls.
func (s *conversationService) failToDraftNote(ctx context.Context, req *common.ChatRequest, decision *db.RoutingDecision, entry *db.KnowledgeEntry, cause error) error {
	global.Log.Errorf("[conversation] generation for ticket %d failed on path %s: %v",
		req.Conversation.ConversationID, decision.Path, cause)

	note := "Automated drafting failed; please handle manually."
	if entry != nil {
		note = fmt.Sprintf("Automated drafting failed; closest article is \"%s\" (%s).", entry.Title, entry.EntryKey)
	}
	return s.action.Escalate(ctx, req.Conversation.ConversationID, enum.EscalationSystemError, note)
}

// recordHandled books the usage statistics and the training example for a
// ticket the system answered from the corpus.
func (s *conversationService) recordHandled(conversationID uint, decision *db.RoutingDecision, ticketText string, entry *db.KnowledgeEntry) error {
	return dao.Tx(func(tx *sqlx.Tx) error {
		if entry != nil {
			if err := s.knowledgeDb.RecordUsage(entry.EntryKey, enum.OutcomeUnknown, tx); err != nil {
				return err
			}
		}
		return s.learning.RecordExample(conversationID, decision.Category, decision.Path, ticketText, tx)
	})
}

func (s *conversationService) HandleReply(ctx context.Context, req *common.ChatRequest) error {
	conversationID := req.Conversation.ConversationID

	return s.withTicketLock(ctx, conversationID, func() error {
		// A message on a ticket this system has never touched is the
		// ticket's first message, not a turn.
		if _, err := s.conversationDb.GetByTicket(conversationID); errors.Is(err, sql.ErrNoRows) {
			if s.loadContext(ctx, conversationID) == nil {
				return s.processNewTicket(ctx, req)
			}
		}

		conv, err := s.loadOrCreateConversation(ctx, req)
		if err != nil {
			return err
		}
		if err := conv.CanAppend(); err != nil {
			return err
		}

		signal := s.sentiment.Read(req.Content)
		assessment := assessTurn(signal, conv.Confidence, conv.FailedTurns)
		conv.Confidence = assessment.Confidence
		conv.FailedTurns = assessment.FailedTurns

		turn := db.Turn{
			CustomerText:         req.Content,
			Sentiment:            signal.Sentiment,
			EntryKey:             conv.EntryKey,
			Confidence:           assessment.Confidence,
			ResolutionSuccessful: assessment.Resolved,
		}

		switch {
		case assessment.Escalation != "":
			return s.escalateTurn(ctx, conv, &turn, assessment.Escalation)
		case assessment.Resolved:
			return s.resolveTurn(ctx, conv, &turn)
		default:
			return s.continueTurn(ctx, req, conv, &turn, signal)
		}
	})
}

// turnAssessment is the state-machine outcome of one customer turn.
type turnAssessment struct {
	Confidence  float64
	FailedTurns int
	Resolved    bool
	Escalation  enum.EscalationReason
}

// assessTurn applies the sentiment confidence delta, clamped to [0,1], counts
// the turn as failed unless the sentiment is positive, and checks the
// escalation triggers in priority order: explicit request, failed-turn
// ceiling, confidence floor.
func assessTurn(signal TurnSignal, confidence float64, failedTurns int) turnAssessment {
	cfg := global.Config.Triage

	switch signal.Sentiment {
	case enum.SentimentPositive:
		confidence += cfg.PositiveDelta
	case enum.SentimentNegative, enum.SentimentFrustrated:
		confidence += cfg.NegativeDelta
	default:
		confidence += cfg.NeutralDelta
	}
	confidence = utils.Clamp(confidence, 0.0, 1.0)

	resolved := signal.Sentiment == enum.SentimentPositive
	if !resolved {
		failedTurns++
	}

	var escalation enum.EscalationReason
	switch {
	case signal.EscalationRequest:
		escalation = enum.EscalationExplicitRequest
	case failedTurns >= cfg.MaxFailedTurns:
		escalation = enum.EscalationExceededMaxTurns
	case confidence < cfg.EscalationFloor:
		escalation = enum.EscalationLowConfidence
	}

	return turnAssessment{
		Confidence:  confidence,
		FailedTurns: failedTurns,
		Resolved:    resolved,
		Escalation:  escalation,
	}
}

// loadOrCreateConversation fetches the row of a ticket, creating it on the
// first reply after the initial automated response. The cached routing
// context seeds category, entry and starting confidence.
func (s *conversationService) loadOrCreateConversation(ctx context.Context, req *common.ChatRequest) (*db.Conversation, error) {
	conversationID := req.Conversation.ConversationID

	conv, err := s.conversationDb.GetByTicket(conversationID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load conversation %d: %w", conversationID, err)
	}

	qc := s.loadContext(ctx, conversationID)
	if qc == nil {
		qc = &queryContext{Query: req.Content, Score: 1.0}
	}

	conv = &db.Conversation{
		ConversationID: conversationID,
		AccountID:      req.Conversation.AccountID,
		Category:       qc.Category,
		State:          enum.ConversationOpen,
		Confidence:     utils.Clamp(qc.Score, 0.0, 1.0),
		EntryKey:       qc.EntryKey,
	}
	if err := dao.Tx(func(tx *sqlx.Tx) error {
		return s.conversationDb.Create(conv, tx)
	}); err != nil {
		return nil, fmt.Errorf("create conversation %d: %w", conversationID, err)
	}
	return conv, nil
}

func (s *conversationService) escalateTurn(ctx context.Context, conv *db.Conversation, turn *db.Turn, reason enum.EscalationReason) error {
	turn.Escalated = true
	conv.State = enum.ConversationEscalated
	conv.EscalationReason = reason

	err := dao.Tx(func(tx *sqlx.Tx) error {
		if err := s.conversationDb.AppendTurn(conv, turn, tx); err != nil {
			return err
		}
		if err := s.conversationDb.Update(conv, tx); err != nil {
			return err
		}
		if conv.EntryKey != "" {
			if err := s.knowledgeDb.RecordUsage(conv.EntryKey, enum.OutcomeUnsatisfied, tx); err != nil {
				return err
			}
		}
		return s.learning.RecordOutcome(conv.ConversationID, enum.OutcomeUnsatisfied, tx)
	})
	if err != nil {
		return err
	}

	global.Log.WithFields(map[string]interface{}{
		"conversation_id": conv.ConversationID,
		"reason":          reason,
		"turn":            turn.TurnNumber,
		"confidence":      conv.Confidence,
	}).Info("[conversation] escalated")

	return s.action.Escalate(ctx, conv.ConversationID, reason,
		fmt.Sprintf("Escalated after turn %d: %s (confidence %.2f).", turn.TurnNumber, reason, conv.Confidence))
}

func (s *conversationService) resolveTurn(ctx context.Context, conv *db.Conversation, turn *db.Turn) error {
	conv.State = enum.ConversationResolved

	err := dao.Tx(func(tx *sqlx.Tx) error {
		if err := s.conversationDb.AppendTurn(conv, turn, tx); err != nil {
			return err
		}
		if err := s.conversationDb.Update(conv, tx); err != nil {
			return err
		}
		if conv.EntryKey != "" {
			if err := s.knowledgeDb.RecordUsage(conv.EntryKey, enum.OutcomeSatisfied, tx); err != nil {
				return err
			}
		}
		return s.learning.RecordOutcome(conv.ConversationID, enum.OutcomeSatisfied, tx)
	})
	if err != nil {
		return err
	}

	global.Log.Infof("[conversation] ticket %d resolved on turn %d", conv.ConversationID, turn.TurnNumber)
	return s.action.ResolveTicket(ctx, conv.ConversationID)
}

// continueTurn handles a non-terminal turn: clarifying replies enrich the
// query and re-run retrieval; a better-scoring entry replaces the current
// one with the switch recorded on the turn.
func (s *conversationService) continueTurn(ctx context.Context, req *common.ChatRequest, conv *db.Conversation, turn *db.Turn, signal TurnSignal) error {
	entryKey := conv.EntryKey
	qc := s.loadContext(ctx, conv.ConversationID)
	if qc == nil {
		qc = &queryContext{Query: req.Content, Category: conv.Category, EntryKey: conv.EntryKey}
	}

	if signal.Clarification || signal.Sentiment == enum.SentimentNeutral {
		qc.Query = strings.TrimSpace(qc.Query + "\n" + req.Content)

		result, err := s.retrieval.HybridSearch(ctx, qc.Query, common.RetrievalFilters{Category: conv.Category})
		if err != nil {
			global.Log.Warnf("[conversation] re-retrieval for ticket %d failed: %v", conv.ConversationID, err)
		} else if len(result.Candidates) > 0 {
			top := result.Candidates[0]
			score := NormalizeScore(top.Score, global.Config.Triage.RrfK)
			if top.Entry.EntryKey != entryKey && score > qc.Score {
				turn.PrevEntryKey = entryKey
				turn.PrevEntryScore = qc.Score
				turn.EntryKey = top.Entry.EntryKey
				turn.EntryScore = score
				entryKey = top.Entry.EntryKey
				conv.EntryKey = entryKey
				qc.EntryKey = entryKey
				qc.Score = score
				global.Log.Infof("[conversation] ticket %d switched entry %s -> %s (%.2f -> %.2f)",
					conv.ConversationID, turn.PrevEntryKey, entryKey, turn.PrevEntryScore, score)
			}
		}
	}

	var entry *db.KnowledgeEntry
	if entryKey != "" {
		var err error
		entry, err = s.knowledgeDb.GetByKey(entryKey)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load entry '%s': %w", entryKey, err)
		}
	}

	reply, err := s.draft.GenerateDraft(ctx, qc.Query, entry)
	if err != nil {
		return s.failTurn(ctx, conv, turn, err)
	}
	turn.SystemResponse = reply

	if err := dao.Tx(func(tx *sqlx.Tx) error {
		if err := s.conversationDb.AppendTurn(conv, turn, tx); err != nil {
			return err
		}
		return s.conversationDb.Update(conv, tx)
	}); err != nil {
		return err
	}

	s.saveContext(ctx, conv.ConversationID, qc)
	return s.action.SendReply(ctx, conv.ConversationID, reply)
}

// failTurn books the turn and escalates; a generation failure must not stall
// an open conversation.
func (s *conversationService) failTurn(ctx context.Context, conv *db.Conversation, turn *db.Turn, cause error) error {
	global.Log.Errorf("[conversation] reply generation for ticket %d failed: %v", conv.ConversationID, cause)

	turn.Escalated = true
	conv.State = enum.ConversationEscalated
	conv.EscalationReason = enum.EscalationSystemError

	if err := dao.Tx(func(tx *sqlx.Tx) error {
		if err := s.conversationDb.AppendTurn(conv, turn, tx); err != nil {
			return err
		}
		return s.conversationDb.Update(conv, tx)
	}); err != nil {
		return err
	}

	return s.action.Escalate(ctx, conv.ConversationID, enum.EscalationSystemError,
		"Automated reply generation failed; please take over.")
}
