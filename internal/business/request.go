package business

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Request is the invocation record { "input": {...} }. Fields are pointers so
// that absent keys can be told apart from zero values.
type Request struct {
	Input *RawInput `json:"input" yaml:"input"`
}

// RawInput is the wire shape of Input.
type RawInput struct {
	DailyRevenue       *float64   `json:"daily_revenue" yaml:"daily_revenue"`
	DailyCost          *float64   `json:"daily_cost" yaml:"daily_cost"`
	NumberOfCustomers  *Customers `json:"number_of_customers" yaml:"number_of_customers"`
	PreviousDayRevenue *float64   `json:"previous_day_revenue" yaml:"previous_day_revenue"`
	PreviousDayCost    *float64   `json:"previous_day_cost" yaml:"previous_day_cost"`
}

// DecodeJSON reads exactly one JSON request from r. Unknown keys and anything
// after the closing brace other than whitespace are rejected.
func DecodeJSON(r io.Reader) (*Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTrailingData, err)
		}
		return nil, ErrTrailingData
	}
	return &req, nil
}

// Customers is a customer count on the wire. Whole-number floats such as 50.0
// are accepted; fractions are rejected with ErrFractionalCustomers so JSON and
// YAML documents follow the same rule.
type Customers int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Customers) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	n, ok := v.(json.Number)
	if !ok {
		return fmt.Errorf("number_of_customers: want a number, got %s", b)
	}
	return c.parse(n.String())
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Customers) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("number_of_customers: want a number (line %d)", node.Line)
	}
	switch node.ShortTag() {
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return err
		}
		return c.set(i)
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		return c.setFloat(f)
	default:
		return fmt.Errorf("number_of_customers: want a number, got %q (line %d)", node.Value, node.Line)
	}
}

func (c *Customers) parse(s string) error {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return c.set(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("number_of_customers: %w", err)
	}
	return c.setFloat(f)
}

func (c *Customers) setFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return fmt.Errorf("%w: %v", ErrFractionalCustomers, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return fmt.Errorf("number_of_customers: %v out of range", f)
	}
	return c.set(int64(f))
}

func (c *Customers) set(i int64) error {
	if i < math.MinInt || i > math.MaxInt {
		return fmt.Errorf("number_of_customers: %d out of range", i)
	}
	*c = Customers(i)
	return nil
}

// NewRequest wraps a typed Input into a Request.
func NewRequest(in Input) *Request {
	customers := Customers(in.NumberOfCustomers)
	return &Request{Input: &RawInput{
		DailyRevenue:       &in.DailyRevenue,
		DailyCost:          &in.DailyCost,
		NumberOfCustomers:  &customers,
		PreviousDayRevenue: &in.PreviousDayRevenue,
		PreviousDayCost:    &in.PreviousDayCost,
	}}
}

// Validate checks that every field is present and returns the typed Input.
// The first absent field is reported as a *MissingFieldError.
func (r *Request) Validate() (Input, error) {
	if r == nil || r.Input == nil {
		return Input{}, &MissingFieldError{Field: "input"}
	}
	raw := r.Input

	switch {
	case raw.DailyRevenue == nil:
		return Input{}, &MissingFieldError{Field: "input.daily_revenue"}
	case raw.DailyCost == nil:
		return Input{}, &MissingFieldError{Field: "input.daily_cost"}
	case raw.NumberOfCustomers == nil:
		return Input{}, &MissingFieldError{Field: "input.number_of_customers"}
	case raw.PreviousDayRevenue == nil:
		return Input{}, &MissingFieldError{Field: "input.previous_day_revenue"}
	case raw.PreviousDayCost == nil:
		return Input{}, &MissingFieldError{Field: "input.previous_day_cost"}
	}

	return Input{
		DailyRevenue:       *raw.DailyRevenue,
		DailyCost:          *raw.DailyCost,
		NumberOfCustomers:  int(*raw.NumberOfCustomers),
		PreviousDayRevenue: *raw.PreviousDayRevenue,
		PreviousDayCost:    *raw.PreviousDayCost,
	}, nil
}
