package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// JSONカラムは全部text列にJSON文字列で保存する（postgres/mysql/sqlite共通）

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

func valueJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// 画像URLなど順序つきの文字列リスト
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return valueJSON([]string{})
	}
	return valueJSON([]string(l))
}

func (l *StringList) Scan(src interface{}) error {
	var out []string
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// 商品スペック（key/value）
type Specifications map[string]string

func (s Specifications) Value() (driver.Value, error) {
	if s == nil {
		return valueJSON(map[string]string{})
	}
	return valueJSON(map[string]string(s))
}

func (s *Specifications) Scan(src interface{}) error {
	out := map[string]string{}
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// 重複なしのタグ。前後空白を落として空は捨てる
type TagSet []string

func NewTagSet(tags []string) TagSet {
	seen := make(map[string]struct{}, len(tags))
	out := make(TagSet, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (t TagSet) Value() (driver.Value, error) {
	return valueJSON([]string(NewTagSet(t)))
}

func (t *TagSet) Scan(src interface{}) error {
	var out []string
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*t = NewTagSet(out)
	return nil
}

// 配送先住所
type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

var ErrInvalidAddress = errors.New("shipping address requires street, city, postalCode and country")

// stateは国によって無いので必須にしない
func (a ShippingAddress) Validate() error {
	if strings.TrimSpace(a.Street) == "" ||
		strings.TrimSpace(a.City) == "" ||
		strings.TrimSpace(a.PostalCode) == "" ||
		strings.TrimSpace(a.Country) == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (a ShippingAddress) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return valueJSON(a)
}

func (a *ShippingAddress) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// 決済ゲートウェイから返ってきた値。中身はゲートウェイ依存
type PaymentDetails struct {
	IntentID  string `json:"intentId,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	// 検証にだけ使う。レスポンスにもDBにも出さない
	Signature string `json:"-"`
	Gateway   string `json:"gateway,omitempty"`
}

// 検証に回せる情報があるか
func (d PaymentDetails) Supplied() bool {
	return d.IntentID != "" || d.PaymentID != ""
}

func (d PaymentDetails) Value() (driver.Value, error) {
	return valueJSON(d)
}

func (d *PaymentDetails) Scan(src interface{}) error {
	return scanJSON(src, d)
}
