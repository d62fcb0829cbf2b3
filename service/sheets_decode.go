package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"orderdesk/models"
	"orderdesk/normalizer"
)

// ErrRemote marks an ok=false answer from the sheet
var ErrRemote = errors.New("remote sheet error")

// RemoteError carries the sheet's error message verbatim
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// unwrapEnvelope accepts a bare array, {ok, data:[...]} and
// {ok, data:{products, sales, orders, customers}}. For an object payload the
// member named by kind is returned; kind all returns the object itself.
func unwrapEnvelope(body []byte, kind models.FetchKind) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return json.RawMessage("[]"), nil
	}
	if body[0] == '[' {
		return json.RawMessage(body), nil
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = "remote sheet returned ok=false"
		}
		return nil, &RemoteError{Message: msg}
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	if data[0] != '{' || kind == models.FetchAll || kind == "" {
		return json.RawMessage(data), nil
	}

	var byKind map[string]json.RawMessage
	if err := json.Unmarshal(data, &byKind); err != nil {
		return nil, fmt.Errorf("failed to decode %s data: %w", kind, err)
	}
	member, ok := byKind[string(kind)]
	if !ok || len(member) == 0 {
		return json.RawMessage("[]"), nil
	}
	return member, nil
}

func decodeList[T any](data json.RawMessage, kind models.FetchKind) ([]T, error) {
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// decodeOrderLines accepts flat order lines or pre-grouped orders and always
// returns flat lines.
func decodeOrderLines(data json.RawMessage) ([]models.RawOrderLine, error) {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	grouped := false
	for _, row := range probe {
		if _, ok := row["salesItems"]; ok {
			grouped = true
			break
		}
		if _, ok := row["orderInfo"]; ok {
			grouped = true
			break
		}
	}
	if !grouped {
		return decodeList[models.RawOrderLine](data, models.FetchOrders)
	}
	orders, err := decodeList[models.RawOrder](data, models.FetchOrders)
	if err != nil {
		return nil, err
	}
	return normalizer.FlattenOrders(orders), nil
}

// decodeSubmitResult reads the first element when data is an array
func decodeSubmitResult(data json.RawMessage) (*models.SubmitResult, error) {
	data = bytes.TrimSpace(data)
	result := &models.SubmitResult{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return result, nil
	}
	if data[0] == '[' {
		var list []models.SubmitResult
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to decode submit result: %w", err)
		}
		if len(list) > 0 {
			*result = list[0]
		}
		return result, nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("failed to decode submit result: %w", err)
	}
	return result, nil
}
