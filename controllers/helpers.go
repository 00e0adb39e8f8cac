package controllers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// looseValue accepts a JSON string, number or null, or a form value, and
// keeps its text. Clients send coordinates and ids both ways.
type looseValue struct {
	Raw string
	Set bool
}

func (v *looseValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*v = looseValue{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = looseValue{Raw: strings.TrimSpace(s), Set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = looseValue{Raw: n.String(), Set: true}
	return nil
}

// UnmarshalParam implements binding.BindUnmarshaler for form values.
func (v *looseValue) UnmarshalParam(param string) error {
	*v = looseValue{Raw: strings.TrimSpace(param), Set: true}
	return nil
}

func (v looseValue) Empty() bool {
	return !v.Set || v.Raw == ""
}

// optional distinguishes an absent JSON key from an explicit null.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(bytes.TrimSpace(b)) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
