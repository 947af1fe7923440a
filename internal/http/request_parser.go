package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"debts/internal/core"
)

var errMissingAction = errors.New("missing action")

// AddForm is the parsed body of POST /add.
type AddForm struct {
	Name   string
	Amount float64
}

// UpdateForm is the parsed body of POST /update/{id}.
type UpdateForm struct {
	Amount float64
	Action core.Action
}

// ParseAddForm reads name and amount. The name is only sanitized here; the
// service decides whether it is blank.
func ParseAddForm(r *http.Request) (AddForm, error) {
	if err := r.ParseForm(); err != nil {
		return AddForm{}, err
	}
	amount, err := core.ParseAmount(r.PostForm.Get("amount"))
	if err != nil {
		return AddForm{}, err
	}
	return AddForm{
		Name:   sanitizeInput(r.PostForm.Get("name")),
		Amount: amount,
	}, nil
}

// ParseUpdateForm reads amount and action. Any action value is accepted, but
// the field itself must be present.
func ParseUpdateForm(r *http.Request) (UpdateForm, error) {
	if err := r.ParseForm(); err != nil {
		return UpdateForm{}, err
	}
	amount, err := core.ParseAmount(r.PostForm.Get("amount"))
	if err != nil {
		return UpdateForm{}, err
	}
	if _, ok := r.PostForm["action"]; !ok {
		return UpdateForm{}, errMissingAction
	}
	return UpdateForm{
		Amount: amount,
		Action: core.Action(strings.TrimSpace(r.PostForm.Get("action"))),
	}, nil
}

// ParseID reads the {id} path value. Only plain decimal integers match.
func ParseID(r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseSearch returns the trimmed search query of the list page.
func ParseSearch(r *http.Request) string {
	return strings.TrimSpace(sanitizeInput(r.URL.Query().Get("search")))
}
