package backend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/relabs-tech/rentdesk/core/resource"
)

// receivableParameters are the parameters of GET /reports/accounts-receivable
type receivableParameters struct {
	MinOverdueDays int64 `validate:"gte=0"`
	BranchID       int64 `validate:"gte=0"`
	HasBranch      bool
}

// cashflowParameters are the parameters of GET /reports/cashflow-detail
type cashflowParameters struct {
	Type          string `validate:"omitempty,oneof=income expense"`
	CategoryID    int64  `validate:"gte=0"`
	HasCategoryID bool
}

// dateRange resolves startDate and endDate of a report request
func (b *Backend) dateRange(c *call) (resource.DateRange, error) {
	params := c.params()
	r, err := resource.ResolveDateRange(params["startDate"], params["endDate"], b.now())
	if err != nil {
		return r, invalidParameter("%s", err.Error())
	}
	return r, nil
}

// intParam returns an integer parameter. ok is false if it is missing or empty.
func intParam(params map[string]interface{}, key string) (value int64, ok bool, err error) {
	v, present := params[key]
	if !present || v == nil {
		return 0, false, nil
	}
	if s, isString := v.(string); isString {
		if strings.TrimSpace(s) == "" {
			return 0, false, nil
		}
		value, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, false, invalidParameter("invalid %s '%s'", key, s)
		}
		return value, true, nil
	}
	value, ok = resource.Integer(v)
	if !ok {
		return 0, false, invalidParameter("invalid %s '%v'", key, v)
	}
	return value, true, nil
}

func stringParam(params map[string]interface{}, key string) string {
	switch v := params[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}

// check validates p with the parameter validator
func (b *Backend) check(p interface{}) error {
	err := b.params.Struct(p)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		messages := make([]string, 0, len(verrs))
		for _, e := range verrs {
			messages = append(messages, fmt.Sprintf("invalid %s '%v'", e.Field(), e.Value()))
		}
		return invalidParameter("%s", strings.Join(messages, "; "))
	}
	return err
}

func (b *Backend) receivableParameters(c *call) (receivableParameters, error) {
	params := c.params()
	p := receivableParameters{MinOverdueDays: 1}
	if v, ok, err := intParam(params, "minOverdueDays"); err != nil {
		return p, err
	} else if ok {
		p.MinOverdueDays = v
	}
	if v, ok, err := intParam(params, "branchId"); err != nil {
		return p, err
	} else if ok {
		p.BranchID, p.HasBranch = v, true
	}
	return p, b.check(p)
}

func (b *Backend) cashflowParameters(c *call) (cashflowParameters, error) {
	params := c.params()
	p := cashflowParameters{Type: strings.ToLower(stringParam(params, "type"))}
	if v, ok, err := intParam(params, "categoryId"); err != nil {
		return p, err
	} else if ok {
		p.CategoryID, p.HasCategoryID = v, true
	}
	return p, b.check(p)
}
