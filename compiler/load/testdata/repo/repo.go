package repo

import (
	"context"
	"database/sql"
	"iter"
	"time"

	"github.com/syssam/repox"
)

type User struct {
	ID   int64
	Name string
}

type Crud interface {
	Flush(ctx context.Context) error
}

type userBase struct{}

func (userBase) Describe() string { return "users" }

// UserRepository stores users.
//
//repox:repository unit="main" mode=extended base=userBase
type UserRepository interface {
	Crud

	Find(ctx context.Context, id int64) (sql.Null[User], error)
	//repox:query "User.byName" named
	//repox:transactional MANDATORY
	ByName(ctx context.Context, name string) (iter.Seq2[User, error], error)
	//repox:query "User.since"
	//repox:temporal since=DATE
	Since(ctx context.Context, since time.Time, _ int) ([]*User, error)
	Session() repox.Session
	Describe() string
}

// NotARepository has no directive.
type NotARepository interface {
	Find(id int64) (*User, error)
}
