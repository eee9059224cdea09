package comment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"", ActionNone, false},
		{"create", ActionCreate, false},
		{" Edit ", ActionEdit, false},
		{"delete", ActionDelete, false},
		{"approve", ActionNone, true},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAction(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAction(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSubmissionValidate(t *testing.T) {
	valid := Submission{TableName: "001", Action: ActionEdit, Comment: "typo", Detail: Detail{TableName: "001", RowIndex: 2, Field: "gloss"}}

	tests := []struct {
		name   string
		mutate func(*Submission)
		ok     bool
	}{
		{"valid", func(*Submission) {}, true},
		{"no action", func(s *Submission) { s.Action = ActionNone }, true},
		{"empty table", func(s *Submission) { s.TableName = "" }, false},
		{"path in table", func(s *Submission) { s.TableName = "../etc" }, false},
		{"blank comment", func(s *Submission) { s.Comment = "  " }, false},
		{"bad action", func(s *Submission) { s.Action = "merge" }, false},
		{"detail for other table", func(s *Submission) { s.Detail.TableName = "002" }, false},
		{"negative row", func(s *Submission) { s.Detail.RowIndex = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestFormRoundTrip(t *testing.T) {
	s := Submission{
		TableName: "001",
		Action:    ActionCreate,
		Comment:   "missing example",
		Detail:    Detail{TableName: "001", RowIndex: 4, CellIndex: 1, Field: "example", Value: "", Extra: "hi"},
	}
	form, err := s.Form()
	if err != nil {
		t.Fatal(err)
	}
	if got := form.Get("detail"); got != `{"tablename":"001","row_index":4,"cell_index":1,"field":"example","value":"","extra":"hi"}` {
		t.Errorf("detail field = %s", got)
	}

	back, err := ParseForm(form)
	if err != nil {
		t.Fatalf("ParseForm() error: %v", err)
	}
	if back != s {
		t.Errorf("ParseForm() = %+v, want %+v", back, s)
	}
}

func TestClientPost(t *testing.T) {
	var gotID string
	var got Submission
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		var err error
		got, err = ParseForm(r.PostForm)
		if err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"Comment added.","style":"success"}`))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.newID = func() string { return "req-1" }

	resp, err := c.Post(context.Background(), Submission{
		TableName: "002",
		Comment:   "wrong gloss",
		Detail:    Detail{RowIndex: 3, Field: "gloss", Value: "dog"},
	})
	if err != nil {
		t.Fatalf("Post() error: %v", err)
	}
	if !resp.Success || resp.Style != StyleSuccess {
		t.Errorf("Post() response = %+v", resp)
	}
	if gotID != "req-1" {
		t.Errorf("request id = %q", gotID)
	}
	if got.Detail.TableName != "002" || got.Detail.Field != "gloss" || got.Comment != "wrong gloss" {
		t.Errorf("server received %+v", got)
	}
}

func TestClientPostRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Not allowed.","style":"danger"}`))
	}))
	defer server.Close()

	c, _ := NewClient(server.URL, 0, nil)
	resp, err := c.Post(context.Background(), Submission{TableName: "001", Comment: "x"})
	if !tverrors.Is(err, tverrors.ErrCodeCommentRejected) {
		t.Fatalf("Post() error = %v, want COMMENT_REJECTED", err)
	}
	if resp == nil || resp.Message != "Not allowed." {
		t.Errorf("rejected response should be returned: %+v", resp)
	}
	if tverrors.UserMessage(err) != "Not allowed." {
		t.Errorf("UserMessage() = %q", tverrors.UserMessage(err))
	}
}

func TestClientPostInvalid(t *testing.T) {
	c, _ := NewClient("http://127.0.0.1:1/comment", 0, nil)
	_, err := c.Post(context.Background(), Submission{TableName: "001"})
	if !tverrors.Is(err, tverrors.ErrCodeInvalidInput) {
		t.Errorf("Post() of empty comment error = %v, want INVALID_INPUT", err)
	}
}

func TestNewClientBadEndpoint(t *testing.T) {
	if _, err := NewClient("ftp://example.org", 0, nil); err == nil {
		t.Error("NewClient should reject non-http endpoints")
	}
}
