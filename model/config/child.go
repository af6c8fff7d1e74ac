package config

type Database struct {
	Type          string `json:"type" mapstructure:"type" yaml:"type"`
	SqlitePath    string `json:"sqlite_path" mapstructure:"sqlite_path" yaml:"sqlite_path"`
	MysqlHost     string `json:"mysql_host" mapstructure:"mysql_host" yaml:"mysql_host"`
	MysqlPort     string `json:"mysql_port" mapstructure:"mysql_port" yaml:"mysql_port"`
	MysqlDbname   string `json:"mysql_dbname" mapstructure:"mysql_dbname" yaml:"mysql_dbname"`
	MysqlUsername string `json:"mysql_username" mapstructure:"mysql_username" yaml:"mysql_username"`
	MysqlPassword string `json:"mysql_password" mapstructure:"mysql_password" yaml:"mysql_password"`
}

type Redis struct {
	Addr       string `json:"addr" mapstructure:"addr" yaml:"addr"`
	Password   string `json:"password" mapstructure:"password" yaml:"password"`
	DB         int64  `json:"db" mapstructure:"db" yaml:"db"`
	LockPrefix string `json:"lock_prefix" mapstructure:"lock_prefix" yaml:"lock_prefix"`
	// LockExpiry is the per-ticket lock TTL in seconds; a crashed worker
	// must not hold a conversation hostage longer than this.
	LockExpiry int64 `json:"lock_expiry" mapstructure:"lock_expiry" yaml:"lock_expiry"`
	// ContextTTL is the TTL in seconds of the enriched query context
	// accumulated across clarifying turns.
	ContextTTL int64 `json:"context_ttl" mapstructure:"context_ttl" yaml:"context_ttl"`
}

type Chatwoot struct {
	Url         string `json:"url" mapstructure:"url" yaml:"url"`
	AccountId   int64  `json:"account_id" mapstructure:"account_id" yaml:"account_id"`
	Auth        string `json:"auth" mapstructure:"auth" yaml:"auth"`
	BotAuth     string `json:"bot_auth" mapstructure:"bot_auth" yaml:"bot_auth"`
	AgentUserID int64  `json:"agent_user_id" mapstructure:"agent_user_id" yaml:"agent_user_id"`
}

type Llm struct {
	Url         string   `json:"url" mapstructure:"url" yaml:"url"`
	Model       string   `json:"model" mapstructure:"model" yaml:"model"`
	Auth        string   `json:"auth" mapstructure:"auth" yaml:"auth"`
	Size        string   `json:"size" mapstructure:"size" yaml:"size"`
	Timeout     int64    `json:"timeout" mapstructure:"timeout" yaml:"timeout"`
	Temperature *float32 `json:"temperature" mapstructure:"temperature" yaml:"temperature"`
}

type LlmEmbedding struct {
	Url          string `json:"url" mapstructure:"url" yaml:"url"`
	Model        string `json:"model" mapstructure:"model" yaml:"model"`
	Auth         string `json:"auth" mapstructure:"auth" yaml:"auth"`
	Timeout      int64  `json:"timeout" mapstructure:"timeout" yaml:"timeout"`
	BatchTimeout int64  `json:"batch_timeout" mapstructure:"batch_timeout" yaml:"batch_timeout"`
	// Dimension of the embedding vectors; corpus and query vectors must
	// both match it exactly.
	Dimension int `json:"dimension" mapstructure:"dimension" yaml:"dimension"`
}

type VectorDb struct {
	Url                 string `json:"url" mapstructure:"url" yaml:"url"`
	Auth                string `json:"auth" mapstructure:"auth" yaml:"auth"`
	KnowledgeCollection string `json:"knowledge_collection" mapstructure:"knowledge_collection" yaml:"knowledge_collection"`
	TrainingCollection  string `json:"training_collection" mapstructure:"training_collection" yaml:"training_collection"`
}

type Mcp struct {
	Url  string `json:"url" mapstructure:"url" yaml:"url"`
	Auth string `json:"auth" mapstructure:"auth" yaml:"auth"`
	// ResearchTool is the name of the tool invoked for the deep research
	// handling path.
	ResearchTool string `json:"research_tool" mapstructure:"research_tool" yaml:"research_tool"`
}

type Oss struct {
	Endpoint        string `json:"endpoint" mapstructure:"endpoint" yaml:"endpoint"`
	Bucket          string `json:"bucket" mapstructure:"bucket" yaml:"bucket"`
	AccessKeyId     string `json:"access_key_id" mapstructure:"access_key_id" yaml:"access_key_id"`
	AccessKeySecret string `json:"access_key_secret" mapstructure:"access_key_secret" yaml:"access_key_secret"`
	StoragePath     string `json:"storage_path" mapstructure:"storage_path" yaml:"storage_path"`
	CdnDomain       string `json:"cdn_domain" mapstructure:"cdn_domain" yaml:"cdn_domain"`
}

// Triage holds every tuning constant of the retrieval, routing, learning and
// conversation engines. The reference values mirror the shipped defaults in
// initialize.handleConfig; none of them is hard law.
type Triage struct {
	// Hybrid retrieval.
	RrfK            int `json:"rrf_k" mapstructure:"rrf_k" yaml:"rrf_k"`
	CandidateWindow int `json:"candidate_window" mapstructure:"candidate_window" yaml:"candidate_window"`
	RetrieveLimit   int `json:"retrieve_limit" mapstructure:"retrieve_limit" yaml:"retrieve_limit"`

	// Routing score bands.
	AutoRespondMin float64 `json:"auto_respond_min" mapstructure:"auto_respond_min" yaml:"auto_respond_min"`
	AutoRefineMin  float64 `json:"auto_refine_min" mapstructure:"auto_refine_min" yaml:"auto_refine_min"`
	DraftMin       float64 `json:"draft_min" mapstructure:"draft_min" yaml:"draft_min"`

	// Learning phases and threshold tuning.
	AssistedFloor      int     `json:"assisted_floor" mapstructure:"assisted_floor" yaml:"assisted_floor"`
	AutonomousFloor    int     `json:"autonomous_floor" mapstructure:"autonomous_floor" yaml:"autonomous_floor"`
	ThresholdFloor     float64 `json:"threshold_floor" mapstructure:"threshold_floor" yaml:"threshold_floor"`
	ThresholdCeiling   float64 `json:"threshold_ceiling" mapstructure:"threshold_ceiling" yaml:"threshold_ceiling"`
	RelaxAbove         float64 `json:"relax_above" mapstructure:"relax_above" yaml:"relax_above"`
	TightenBelow       float64 `json:"tighten_below" mapstructure:"tighten_below" yaml:"tighten_below"`
	RelaxStep          float64 `json:"relax_step" mapstructure:"relax_step" yaml:"relax_step"`
	TightenStep        float64 `json:"tighten_step" mapstructure:"tighten_step" yaml:"tighten_step"`
	ExperimentFraction int     `json:"experiment_fraction" mapstructure:"experiment_fraction" yaml:"experiment_fraction"`

	// Conversation state machine.
	PositiveDelta   float64 `json:"positive_delta" mapstructure:"positive_delta" yaml:"positive_delta"`
	NegativeDelta   float64 `json:"negative_delta" mapstructure:"negative_delta" yaml:"negative_delta"`
	NeutralDelta    float64 `json:"neutral_delta" mapstructure:"neutral_delta" yaml:"neutral_delta"`
	EscalationFloor float64 `json:"escalation_floor" mapstructure:"escalation_floor" yaml:"escalation_floor"`
	MaxFailedTurns  int     `json:"max_failed_turns" mapstructure:"max_failed_turns" yaml:"max_failed_turns"`

	// Auto-refine loop bound.
	RefineIterations int `json:"refine_iterations" mapstructure:"refine_iterations" yaml:"refine_iterations"`

	// Sentiment cue lists, checked in cascade order. Contents are a
	// deployment concern; defaults ship in initialize.handleConfig.
	EscalationKeywords      []string `json:"escalation_keywords" mapstructure:"escalation_keywords" yaml:"escalation_keywords"`
	FrustrationKeywords     []string `json:"frustration_keywords" mapstructure:"frustration_keywords" yaml:"frustration_keywords"`
	DissatisfactionKeywords []string `json:"dissatisfaction_keywords" mapstructure:"dissatisfaction_keywords" yaml:"dissatisfaction_keywords"`
	SatisfactionKeywords    []string `json:"satisfaction_keywords" mapstructure:"satisfaction_keywords" yaml:"satisfaction_keywords"`
	ClarificationKeywords   []string `json:"clarification_keywords" mapstructure:"clarification_keywords" yaml:"clarification_keywords"`

	// CategoryKeywords is the keyword fallback for triage when the LLM is
	// unavailable: category slug -> cue words.
	CategoryKeywords map[string][]string `json:"category_keywords" mapstructure:"category_keywords" yaml:"category_keywords"`

	// ManualReviewCategories force human sign-off regardless of score.
	ManualReviewCategories []string `json:"manual_review_categories" mapstructure:"manual_review_categories" yaml:"manual_review_categories"`

	// External call policy.
	RetryAttempts   int   `json:"retry_attempts" mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBackoffMs  int64 `json:"retry_backoff_ms" mapstructure:"retry_backoff_ms" yaml:"retry_backoff_ms"`
	AsyncJobTimeout int64 `json:"async_job_timeout" mapstructure:"async_job_timeout" yaml:"async_job_timeout"`
}
