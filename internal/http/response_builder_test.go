package http

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	err := NewResponse().
		Status(http.StatusCreated).
		Body([]byte("test")).
		Write(w)

	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Header("X-Custom", "value").
		Write(w)

	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want %q", got, "value")
	}
}

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusBadRequest).
		JSON(map[string][]string{"amount": {"Enter a number."}}).
		Write(w)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"amount":["Enter a number."]}` {
		t.Errorf("Body = %s", body)
	}
}

func TestResponseBuilder_JSONEncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()

	err := NewResponse().JSON(make(chan int)).Write(w)

	if err == nil {
		t.Fatal("expected encode error")
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestResponseBuilder_HTML(t *testing.T) {
	tmpl := template.Must(template.New("x").Parse(`{{define "page"}}<p>{{.}}</p>{{end}}`))
	w := httptest.NewRecorder()

	NewResponse().HTML(tmpl, "page", "<b>hi</b>").Write(w)

	if w.Body.String() != "<p>&lt;b&gt;hi&lt;/b&gt;</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestResponseBuilder_HTMLFailureWritesNothingPartial(t *testing.T) {
	tmpl := template.Must(template.New("x").Parse(`{{define "page"}}<p>before</p>{{.Missing.Field}}{{end}}`))
	w := httptest.NewRecorder()

	err := NewResponse().HTML(tmpl, "page", struct{}{}).Write(w)

	if err == nil {
		t.Fatal("expected render error")
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "before") {
		t.Errorf("partial template output leaked: %q", w.Body.String())
	}

	if err := NewResponse().HTML(nil, "page", nil).Err(); err == nil {
		t.Error("expected error for nil templates")
	}
}

func TestResponseBuilder_Redirect(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().Redirect("/login/").Write(w)

	if w.Code != http.StatusFound {
		t.Errorf("Status code = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login/" {
		t.Errorf("Location = %q", loc)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ResponseBuilder
		wantCode int
	}{
		{"BadRequest", BadRequestError("bad"), http.StatusBadRequest},
		{"InternalServer", InternalServerError("error"), http.StatusInternalServerError},
		{"NotFound", NotFoundError("missing"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.Contains(w.Body.String(), `class="error"`) {
				t.Errorf("Body should contain error class: %s", w.Body.String())
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, "<script>alert('xss')</script>").Write(w)

	if strings.Contains(w.Body.String(), "<script>") {
		t.Error("HTML should be escaped in error messages")
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(http.StatusBadRequest, "Invalid credentials").Write(w)

	if body := strings.TrimSpace(w.Body.String()); body != `{"error":"Invalid credentials"}` {
		t.Errorf("Body = %s", body)
	}
}
