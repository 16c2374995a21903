package field

import "fmt"

// FieldConflictError — повторная регистрация id с другим определением.
type FieldConflictError struct {
	ID       int64
	Existing Field
	Incoming Field
}

func (e *FieldConflictError) Error() string {
	return fmt.Sprintf("field %d already registered as %q (%s), refusing %q (%s)",
		e.ID, e.Existing.Name, e.Existing.Type, e.Incoming.Name, e.Incoming.Type)
}

// UnboundFieldError — для поля не привязан enum.
type UnboundFieldError struct {
	ID int64
}

func (e *UnboundFieldError) Error() string {
	return fmt.Sprintf("no enum bound to field %d", e.ID)
}
