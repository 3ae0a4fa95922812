package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/yolodolo42/ledgers/internal/errs"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// TxQuery selects transactions from one address to another on a remuneration API.
type TxQuery struct {
	BaseURI string `json:"uri" validate:"required,url"`
	From    string `json:"from" validate:"required"`
	To      string `json:"address" validate:"required"`
	Token   string `json:"-"`

	TallyOnly    bool
	TallyDollars bool
	Since        *time.Time

	// Signature is the base64 proof that From signed Token. Sent when set.
	Signature string
}

// Transaction is one ledger entry, in the ledger's smallest unit.
type Transaction struct {
	Amount decimal.Decimal `json:"transaction-value"`
	Date   time.Time       `json:"transaction-date"`
}

// TxResult is the get-transactions response. Transactions is empty for tally-only queries.
type TxResult struct {
	Tally        decimal.Decimal `json:"tally"`
	Transactions []Transaction   `json:"transactions,omitempty"`
}

func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return errs.MissingField(fe.Field())
		}
		return errs.Validation(errs.CodeInvalidNetworkDetails, "'%s' is not valid", fe.Field())
	}
	return errs.Validation("", "%v", err)
}

// GetTxs retrieves transactions (or only their tally) between q.From and q.To.
func GetTxs(ctx context.Context, t Transport, q TxQuery) (*TxResult, error) {
	if err := validate.Struct(q); err != nil {
		return nil, validationError(err)
	}

	params := url.Values{}
	params.Set("tally-only", strconv.FormatBool(q.TallyOnly))
	if q.TallyDollars {
		params.Set("tally-dollars", "true")
	}
	if q.Since != nil {
		params.Set("since", q.Since.UTC().Format("2006-01-02T15:04:05.000Z"))
	}
	if q.Signature != "" {
		params.Set("signature", q.Signature)
	}

	req := Request{
		Method:  http.MethodGet,
		URI:     fmt.Sprintf("%s/get-transactions/%s/%s?%s", q.BaseURI, pathEscape(q.From), pathEscape(q.To), params.Encode()),
		Headers: bearer(q.Token),
	}

	var out TxResult
	if err := DecodeJSON(ctx, t, "get-transactions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type signatureCheck struct {
	Signature string `json:"signature"`
	Message   string `json:"message"`
	Address   string `json:"address"`
}

// IsSignatureValid asks the remuneration API whether address signed message.
// Only a 200 counts as valid; other statuses are a negative answer, not an error.
func IsSignatureValid(ctx context.Context, t Transport, baseURI, token, address string, message, signature []byte) (bool, error) {
	body, err := json.Marshal(signatureCheck{
		Signature: base64.StdEncoding.EncodeToString(signature),
		Message:   base64.StdEncoding.EncodeToString(message),
		Address:   address,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := bearer(token)
	headers["Content-Type"] = "application/json; charset=utf-8"

	resp, err := t.Send(ctx, Request{
		Method:  http.MethodPost,
		URI:     baseURI + "/is-signature-valid",
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return false, errs.Transport("is-signature-valid", err)
	}
	return resp.Status == http.StatusOK, nil
}

type rate struct {
	MinRate decimal.Decimal `json:"minrate"`
}

// MinRate fetches the lowest dollars-per-unit rate from a rates URI. A missing
// rate is reported as zero.
func MinRate(ctx context.Context, t Transport, uri, token string) (decimal.Decimal, error) {
	req := Request{Method: http.MethodGet, URI: uri, Headers: bearer(token)}

	var rates []rate
	if err := DecodeJSON(ctx, t, "rates", req, &rates); err != nil {
		return decimal.Zero, err
	}
	if len(rates) == 0 {
		return decimal.Zero, nil
	}
	return rates[0].MinRate, nil
}
