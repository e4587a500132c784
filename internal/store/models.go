package store

import (
	"time"
)

// Language is the execution language of a terminal session, fixed at creation.
type Language string

const (
	LanguageCpp    Language = "Cpp"
	LanguageJava   Language = "Java"
	LanguagePython Language = "Python"
)

// ExecutionStatus classifies a stored execution record.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailure ExecutionStatus = "failure"
	ExecutionStatusError   ExecutionStatus = "error"
)

type User struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt time.Time
}

type Team struct {
	ID        int64
	Name      string
	AdminID   int64
	CreatedAt time.Time
}

type TeamMember struct {
	TeamID   int64
	UserID   int64
	Role     string
	JoinedAt time.Time
}

type Problem struct {
	ID         int64
	Title      string
	Statement  string
	Difficulty int32
	CreatedAt  time.Time
}

type TestCase struct {
	ID             int64
	ProblemID      int64
	Input          string
	ExpectedOutput string
}

// Session is one collaborative coding session of a team on a problem.
type Session struct {
	ID        int64
	TeamID    int64
	ProblemID int64
	CreatedAt time.Time
}

// TerminalSession is a language-scoped execution context tied to one session.
type TerminalSession struct {
	ID         int64
	SessionID  int64
	Language   Language
	Active     bool
	LastActive time.Time
}

type Execution struct {
	ID         int64
	UserID     int64
	TerminalID int64
	Code       string
	Result     []byte
	Status     ExecutionStatus
	ExecutedAt time.Time
}

// SessionSnapshot is an append-only copy of the session's code at a point in time.
type SessionSnapshot struct {
	ID           int64
	SessionID    int64
	CodeSnapshot string
	CreatedAt    time.Time
}

type Chat struct {
	ID      int64
	TeamID  int64
	UserID  int64
	Message string
	SentAt  time.Time
}
