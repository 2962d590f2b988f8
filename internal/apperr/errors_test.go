package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFoundf("session %s", "abc"), http.StatusNotFound},
		{"forbidden", Forbiddenf("metric"), http.StatusForbidden},
		{"unauthorized", Unauthorizedf("bad token"), http.StatusUnauthorized},
		{"validation", Validationf("mixed session ids"), http.StatusBadRequest},
		{"conflict", Conflictf("email taken"), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped twice", fmt.Errorf("outer: %w", NotFoundf("inner")), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrForbidden, ErrUnauthorized, ErrValidation, ErrConflict}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel %v unexpectedly matches %v", a, b)
			}
		}
	}
}
