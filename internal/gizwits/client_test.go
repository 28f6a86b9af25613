package gizwits

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"heatzy_bridge/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "", 0)
}

func TestLogin_SendsCredentialsAndHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/app/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get(headerApplicationID); got != DefaultApplicationID {
			t.Errorf("application id header = %q", got)
		}
		if got := r.Header.Get(headerUserToken); got != "" {
			t.Errorf("login must not send a user token, got %q", got)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if body["username"] != "u@example.com" || body["password"] != "secret" || body["lang"] != "en" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = io.WriteString(w, `{"token":"tok-1","uid":"uid-1","expire_at":1700000000}`)
	})

	res, err := c.Login(context.Background(), "u@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "tok-1" || res.UID != "uid-1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.ExpireAt.Unix() != 1700000000 {
		t.Fatalf("ExpireAt = %v", res.ExpireAt)
	}
}

func TestLogin_RejectedCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error_code":9020,"error_message":"username or password error!"}`)
	})

	_, err := c.Login(context.Background(), "u", "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.VendorCode != 9020 {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if apiErr.Transport() {
		t.Fatal("status error must not be reported as transport failure")
	}
}

func TestLogin_EmptyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"uid":"x"}`)
	})
	_, err := c.Login(context.Background(), "u", "p")
	if !errors.Is(err, errEmptyToken) {
		t.Fatalf("expected errEmptyToken, got %v", err)
	}
}

func TestListDevices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app/bindings" || r.URL.RawQuery != "limit=20&skip=0" {
			t.Errorf("unexpected url %s", r.URL.String())
		}
		if got := r.Header.Get(headerUserToken); got != "tok" {
			t.Errorf("user token header = %q", got)
		}
		_, _ = io.WriteString(w, `{"devices":[{"did":"X1","dev_alias":"Salon"},{"did":"X2","dev_alias":""}]}`)
	})

	devices, err := c.ListDevices(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	want := []models.Device{{ID: "X1", Name: "Salon"}, {ID: "X2"}}
	if len(devices) != len(want) {
		t.Fatalf("got %d devices", len(devices))
	}
	for i := range want {
		if devices[i] != want[i] {
			t.Errorf("device %d = %+v, want %+v", i, devices[i], want[i])
		}
	}
}

func TestReadState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app/devdata/X1/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"did":"X1","updated_at":1700000100,"attr":{"mode":"cft1"}}`)
	})

	st, err := c.ReadState(context.Background(), "tok", "X1")
	if err != nil {
		t.Fatalf("ReadState: %v", err)
	}
	if st.RawMode != "cft1" || st.UpdatedAt.Unix() != 1700000100 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestReadState_MalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"did":"X1"}`)
	})
	_, err := c.ReadState(context.Background(), "tok", "X1")
	if !errors.Is(err, errMissingAttr) {
		t.Fatalf("expected errMissingAttr, got %v", err)
	}
}

func TestWriteMode_Body(t *testing.T) {
	var got map[string]map[string]int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/app/control/X1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	})

	if err := c.WriteMode(context.Background(), "tok", "X1", 4); err != nil {
		t.Fatalf("WriteMode: %v", err)
	}
	if got["attrs"]["mode"] != 4 {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := NewClient(srv.URL, "", 0)
	srv.Close()

	err := c.WriteMode(context.Background(), "tok", "X1", 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.Transport() {
		t.Fatalf("expected transport failure, got %v", err)
	}
}
