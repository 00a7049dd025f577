// Package types holds the domain entities and shared enums for the
// retrieval and enrichment engine (spec §3).
package types

import "time"

// IssueState is the lifecycle state of a tracked issue.
type IssueState string

const (
	IssueStateOpen   IssueState = "open"
	IssueStateClosed IssueState = "closed"
)

// Issue mirrors spec §3's Issue entity.
type Issue struct {
	ID               int64      `gorm:"primaryKey"`
	ExternalNumber   int64      `gorm:"uniqueIndex;not null"`
	Title            string     `gorm:"not null"`
	Body             string
	State            IssueState `gorm:"type:text;index"`
	Labels           StringSet  `gorm:"type:jsonb"`
	UserLogin        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LLMSummary       *string
	ReportedVersion  *string
	StackTraceFile   *string
	FixedInVersion   *string
	TokenCount       *int

	TitleVec   Vector `gorm:"type:vector(768)"`
	BodyVec    Vector `gorm:"type:vector(768)"`
	SummaryVec Vector `gorm:"type:vector(768)"`
}

func (Issue) TableName() string { return "issues" }

// ForumTopicKind classifies a forum thread's intent.
type ForumTopicKind string

const (
	TopicKindBug            ForumTopicKind = "bug"
	TopicKindHelp           ForumTopicKind = "help"
	TopicKindFeatureRequest ForumTopicKind = "feature_request"
	TopicKindOther          ForumTopicKind = "other"
)

// ForumPost mirrors spec §3's ForumPost entity.
type ForumPost struct {
	ID              int64 `gorm:"primaryKey"`
	ExternalTopicID int64 `gorm:"uniqueIndex;not null"`
	Title           string
	Conversation    string
	Slug            string
	CreatedAt       time.Time
	LLMSummary      *string
	TopicKind       *ForumTopicKind
	Solution        *string
	Version         *string
	ReferenceURL    *string
	TokenCount      *int

	ConversationVec Vector `gorm:"type:vector(768)"`
	SummaryVec      Vector `gorm:"type:vector(768)"`
	SolutionVec     Vector `gorm:"type:vector(768)"`
}

func (ForumPost) TableName() string { return "forum_posts" }

// Doc mirrors spec §3's Doc entity.
type Doc struct {
	ID         int64  `gorm:"primaryKey"`
	URL        string `gorm:"uniqueIndex;not null"`
	Markdown   string
	LLMSummary *string
	TokenCount *int

	MarkdownVec Vector `gorm:"type:vector(768)"`
	SummaryVec  Vector `gorm:"type:vector(768)"`
}

func (Doc) TableName() string { return "docs" }

// SourceKind identifies the owning table for a weak (tagged-variant)
// reference, per the spec §9 re-architecture note on polymorphic sources.
type SourceKind string

const (
	SourceIssue SourceKind = "ISSUE"
	SourceForum SourceKind = "FORUM"
	SourceDoc   SourceKind = "DOC"
)

// SourceRef is the tagged variant {kind, id} used by QA and
// ChatSessionEntity instead of a polymorphic ORM relationship.
type SourceRef struct {
	Kind SourceKind
	ID   int64
}

// QA mirrors spec §3's QA entity.
type QA struct {
	ID         int64      `gorm:"primaryKey"`
	SourceKind SourceKind `gorm:"not null;index:idx_qa_source"`
	SourceID   int64      `gorm:"not null;index:idx_qa_source"`
	Question   string     `gorm:"not null"`
	Answer     string     `gorm:"not null"`

	QuestionVec Vector `gorm:"type:vector(768)"`
	AnswerVec   Vector `gorm:"type:vector(768)"`
}

func (QA) TableName() string { return "qas" }

// Ref returns the tagged source variant this QA weakly points at.
func (q QA) Ref() SourceRef { return SourceRef{Kind: q.SourceKind, ID: q.SourceID} }

// Keyword mirrors spec §3's Keyword entity (C5 vocabulary).
type Keyword struct {
	ID         int64  `gorm:"primaryKey"`
	Keyword    string `gorm:"uniqueIndex;not null"`
	Definition string `gorm:"not null"`
	Category   *string
	IsActive   bool `gorm:"not null;default:true"`

	KeywordVec Vector `gorm:"type:vector(768)"`
}

func (Keyword) TableName() string { return "keywords" }

// KeywordCategoryGlossary and KeywordCategoryLLMExtracted are the two
// well-known categories referenced by the §4.7 conflict-merge policy.
const (
	KeywordCategoryGlossary     = "Glossary"
	KeywordCategoryLLMExtracted = "LLM_Extracted"
)

// Synonym mirrors spec §3's Synonym entity.
type Synonym struct {
	ID          int64  `gorm:"primaryKey"`
	Word        string `gorm:"not null;index"`
	SynonymOf   string `gorm:"not null;index"` // references Keyword.Keyword

	WordVec    Vector `gorm:"type:vector(768)"`
	SynonymVec Vector `gorm:"type:vector(768)"`
}

func (Synonym) TableName() string { return "synonyms" }

// BatchStatus is the monotonic state machine of a BatchProcess (spec §4.7).
type BatchStatus string

const (
	BatchCreated         BatchStatus = "created"
	BatchSent            BatchStatus = "sent"
	BatchInProgress      BatchStatus = "in_progress"
	BatchFinalizing      BatchStatus = "finalizing"
	BatchCompleted       BatchStatus = "completed"
	BatchFailed          BatchStatus = "failed"
	BatchExpired         BatchStatus = "expired"
	BatchCancelled       BatchStatus = "cancelled"
	BatchProcessingFailed BatchStatus = "processing_failed"
	BatchError           BatchStatus = "error"
)

// OperationKind identifies the kind of batch LLM operation (spec §4.7).
type OperationKind string

const (
	OpSummarize             OperationKind = "summarize"
	OpQuestions             OperationKind = "questions"
	OpQuestionsAndConcepts  OperationKind = "questions_and_concepts"
)

// TableKind identifies which entity table a batch/worker operation targets.
type TableKind string

const (
	TableIssues      TableKind = "github_issues"
	TableForumPosts  TableKind = "discourse_posts"
	TableDocs        TableKind = "metabase_docs"
	TableQAs         TableKind = "qas"
)

// BatchProcess mirrors spec §3's BatchProcess entity.
type BatchProcess struct {
	ID             int64 `gorm:"primaryKey"`
	BatchID        string `gorm:"uniqueIndex;not null"`
	OperationKind  OperationKind `gorm:"not null"`
	TableKind      TableKind     `gorm:"not null"`
	TotalRequests  int
	InputFilePath  string
	OutputFilePath *string
	InputFileID    string
	OutputFileID   *string
	Status         BatchStatus `gorm:"not null;index"`
	SentAt         *time.Time
	ReceivedAt     *time.Time
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (BatchProcess) TableName() string { return "batch_processes" }

// legalSuccessors enumerates the monotonic BatchStatus transitions allowed
// by spec §3's invariant. error is reachable from any in-flight state.
var legalSuccessors = map[BatchStatus][]BatchStatus{
	BatchCreated:    {BatchSent, BatchError},
	BatchSent:       {BatchInProgress, BatchFinalizing, BatchCompleted, BatchFailed, BatchExpired, BatchCancelled, BatchError},
	BatchInProgress: {BatchInProgress, BatchFinalizing, BatchCompleted, BatchFailed, BatchExpired, BatchCancelled, BatchError},
	BatchFinalizing: {BatchFinalizing, BatchCompleted, BatchFailed, BatchExpired, BatchCancelled, BatchError},
	BatchCompleted:  {BatchProcessingFailed},
}

// IsLegalTransition reports whether next is a legal successor of current.
func IsLegalTransition(current, next BatchStatus) bool {
	if current == next {
		return true
	}
	for _, s := range legalSuccessors[current] {
		if s == next {
			return true
		}
	}
	return false
}

// ApiKey mirrors spec §3's ApiKey entity.
type ApiKey struct {
	ID          int64  `gorm:"primaryKey"`
	Key         string `gorm:"uniqueIndex;not null"`
	Description string
	CreatedAt   time.Time
}

func (ApiKey) TableName() string { return "api_keys" }

// ChatSession mirrors spec §3's ChatSession entity.
type ChatSession struct {
	ID              int64  `gorm:"primaryKey"`
	ChatID          int64  `gorm:"index;not null"`
	UserRequest     string `gorm:"not null"`
	Prompt          string
	Sources         JSON `gorm:"type:jsonb"`
	Response        string
	TokensSent      int
	TokensReceived  int
	CacheHit        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ChatSession) TableName() string { return "chat_sessions" }

// ChatEntityKind enumerates the kinds of entity a ChatSessionEntity may
// reference (the §9 tagged variant, reused for chat auditing).
type ChatEntityKind string

const (
	ChatEntityDoc     ChatEntityKind = "doc"
	ChatEntityQA      ChatEntityKind = "qa"
	ChatEntityKeyword ChatEntityKind = "keyword"
)

// ChatSessionEntity mirrors spec §3's ChatSessionEntity entity.
type ChatSessionEntity struct {
	ID              int64          `gorm:"primaryKey"`
	ChatSessionRef  int64          `gorm:"index;not null"`
	EntityKind      ChatEntityKind `gorm:"not null"`
	EntityID        int64          `gorm:"not null"`
	EntityURL       *string
	SimilarityScore *float64
}

func (ChatSessionEntity) TableName() string { return "chat_session_entities" }
