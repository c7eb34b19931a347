package services

// Confirmer is the single yes/no gate in front of destructive actions.
// The prompt names what will happen if the answer is yes.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// AutoConfirm answers every prompt with the given value
type AutoConfirm bool

func (a AutoConfirm) Confirm(string) bool {
	return bool(a)
}
