package comment

import (
	"encoding/json"
	"net/url"
	"strings"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
)

// Action is the kind of change a comment proposes.
type Action string

// Supported actions. [ActionNone] leaves the kind unspecified.
const (
	ActionNone   Action = ""
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Actions lists the named actions.
var Actions = []Action{ActionCreate, ActionEdit, ActionDelete}

// ParseAction converts s to an Action. The empty string is [ActionNone].
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionNone, ActionCreate, ActionEdit, ActionDelete:
		return a, nil
	}
	return ActionNone, tverrors.New(tverrors.ErrCodeInvalidInput, "unknown action %q (want create, edit or delete)", s)
}

// Detail references a single table cell.
type Detail struct {
	TableName string `json:"tablename"`
	RowIndex  int    `json:"row_index"`
	CellIndex int    `json:"cell_index"`
	Field     string `json:"field"`
	Value     string `json:"value"`
	Extra     string `json:"extra,omitempty"`
}

// Submission is one comment as posted to the endpoint.
type Submission struct {
	TableName string
	Action    Action
	Comment   string
	Detail    Detail
}

// Validate checks that the submission names a table and carries text.
func (s Submission) Validate() error {
	if err := tverrors.ValidateTableName(s.TableName); err != nil {
		return err
	}
	if strings.TrimSpace(s.Comment) == "" {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "comment cannot be empty")
	}
	if _, err := ParseAction(string(s.Action)); err != nil {
		return err
	}
	if s.Detail.TableName != "" && s.Detail.TableName != s.TableName {
		return tverrors.New(tverrors.ErrCodeInvalidInput,
			"detail refers to table %q, submission to %q", s.Detail.TableName, s.TableName)
	}
	if s.Detail.RowIndex < 0 {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "row index cannot be negative")
	}
	return nil
}

// Form encodes the submission as the endpoint's form fields. The detail is
// sent as a JSON document in the "detail" field.
func (s Submission) Form() (url.Values, error) {
	detail, err := json.Marshal(s.Detail)
	if err != nil {
		return nil, tverrors.Wrap(tverrors.ErrCodeInternal, err, "encode detail")
	}
	return url.Values{
		"tablename": {s.TableName},
		"action":    {string(s.Action)},
		"comment":   {s.Comment},
		"detail":    {string(detail)},
	}, nil
}

// ParseForm is the inverse of [Submission.Form].
func ParseForm(form url.Values) (Submission, error) {
	action, err := ParseAction(form.Get("action"))
	if err != nil {
		return Submission{}, err
	}
	s := Submission{
		TableName: form.Get("tablename"),
		Action:    action,
		Comment:   form.Get("comment"),
	}
	if raw := form.Get("detail"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Detail); err != nil {
			return Submission{}, tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "decode detail")
		}
	}
	return s, nil
}

// Notification styles used in a [Response].
const (
	StyleSuccess = "success"
	StyleDanger  = "danger"
	StyleWarning = "warning"
	StyleInfo    = "info"
)

// Response is the endpoint's answer.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Style   string `json:"style"`
}
