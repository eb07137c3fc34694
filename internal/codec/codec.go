// Package codec translates between JSON call documents and dispatcher calls.
//
// DESIGN: This is the boundary contract transports consume. No transport
// lives in this repo; anything that can deliver a JSON document (HTTP
// handler, socket server, CLI) parses it here, runs Execute, and serializes
// the resolved context back.
//
// Call document shape:
//
//	{"service": "messages", "method": "get", "id": "42",
//	 "params": {"query": {...}}, "data": {...}}
//
// Response envelope: call_id/service/method always present, then exactly one
// of "result" or "error".
package codec

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/manifoldhq/manifold/internal/dispatcher"
	"github.com/manifoldhq/manifold/internal/hooks"
)

// ParseCall decodes a JSON call document into a dispatcher call.
func ParseCall(body []byte) (dispatcher.Call, error) {
	var call dispatcher.Call

	if !gjson.ValidBytes(body) {
		return call, fmt.Errorf("invalid call document: not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return call, fmt.Errorf("invalid call document: expected a JSON object")
	}

	call.Path = doc.Get("service").String()
	if call.Path == "" {
		return call, fmt.Errorf("invalid call document: missing service")
	}
	call.Method = doc.Get("method").String()
	if call.Method == "" {
		return call, fmt.Errorf("invalid call document: missing method")
	}

	call.ID = doc.Get("id").String()

	if params := doc.Get("params"); params.Exists() {
		obj, ok := params.Value().(map[string]any)
		if !ok {
			return call, fmt.Errorf("invalid call document: params must be an object")
		}
		call.Params = obj
	}
	if data := doc.Get("data"); data.Exists() {
		call.Data = data.Value()
	}

	return call, nil
}

// EncodeContext serializes a resolved context into a response envelope.
func EncodeContext(ctx *hooks.Context) ([]byte, error) {
	out := []byte(`{}`)

	var err error
	if out, err = sjson.SetBytes(out, "call_id", ctx.CallID); err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "service", ctx.Path); err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "method", ctx.Method); err != nil {
		return nil, err
	}

	if ctx.Err != nil {
		out, err = sjson.SetBytes(out, "error.message", ctx.Err.Error())
		return out, err
	}
	out, err = sjson.SetBytes(out, "result", ctx.Result)
	return out, err
}
