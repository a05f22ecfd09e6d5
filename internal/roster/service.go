// internal/roster/service.go
package roster

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/uniform-watch/internal/logger"
)

const logModule = "roster"

// Repository is what the service needs from storage.
type Repository interface {
	Insert(ctx context.Context, st Student) error
	Get(ctx context.Context, id string) (Student, error)
	List(ctx context.Context, class string) ([]Student, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Add validates the form and stores a new student.
func (svc *Service) Add(ctx context.Context, in NewStudent) (Student, error) {
	in.FullName = strings.Join(strings.Fields(in.FullName), " ")
	in.Class = strings.ToUpper(strings.TrimSpace(in.Class))
	in.Contact = strings.TrimSpace(in.Contact)
	in.Address = strings.TrimSpace(in.Address)

	if err := validateStruct(in); err != nil {
		return Student{}, err
	}

	st := Student{
		ID:        uuid.NewString(),
		FullName:  in.FullName,
		Class:     in.Class,
		Contact:   in.Contact,
		Address:   in.Address,
		CreatedAt: svc.now().UTC().Truncate(time.Second),
	}
	if err := svc.repo.Insert(ctx, st); err != nil {
		return Student{}, err
	}

	logger.Info(logModule, "added student %s (class %s)", st.ID, st.Class)
	return st, nil
}

// List returns the roster, optionally filtered to one class.
func (svc *Service) List(ctx context.Context, class string) ([]Student, error) {
	class = strings.ToUpper(strings.TrimSpace(class))
	if class != "" {
		if err := validate.Var(class, "oneof=A B"); err != nil {
			return nil, &ValidationError{Fields: []FieldError{{Field: "class", Error: "class must be one of A, B"}}}
		}
	}
	return svc.repo.List(ctx, class)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Student{}, ErrNotFound
	}
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	if err := svc.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info(logModule, "deleted student %s", id)
	return nil
}
