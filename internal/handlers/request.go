package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/cre-mailflow/api/internal/platform/requestctx"
	"github.com/cre-mailflow/api/internal/platform/textutil"
	"github.com/cre-mailflow/api/internal/services"
)

var errEmptyBody = errors.New("request body is empty")

// decodeJSONBody reads a single JSON value capped at limit bytes.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	reader := http.MaxBytesReader(w, r.Body, limit)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	if decoder.More() {
		return errors.New("invalid request body: extraneous data")
	}
	return nil
}

// normalizeCriteria applies the form's input masks: state codes are upper-cased and phone numbers
// are re-masked as (DDD) DDD-DDDD.
func normalizeCriteria(c services.BuyingCriteria) services.BuyingCriteria {
	c.TargetState = strings.ToUpper(strings.TrimSpace(c.TargetState))
	if strings.TrimSpace(c.PhoneNumber) != "" {
		c.PhoneNumber = textutil.FormatPhone(c.PhoneNumber)
	}
	return c
}

// clientKey identifies the caller for rate limiting.
func clientKey(r *http.Request) string {
	if ip := requestctx.ClientIP(r.Context()); ip != "" {
		return ip
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
