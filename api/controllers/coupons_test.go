package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/foodcart-backend/internal/promotions"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type stubValidator struct {
	discount promotions.Discount
	err      error
	last     promotions.ValidateInput
}

func (s *stubValidator) Validate(ctx context.Context, input promotions.ValidateInput) (promotions.Discount, error) {
	s.last = input
	return s.discount, s.err
}

func (s *stubValidator) Apply(ctx context.Context, input promotions.ValidateInput, onApplied func(promotions.Discount) error) (promotions.Discount, error) {
	return s.Validate(ctx, input)
}

func TestCouponValidate(t *testing.T) {
	v := &stubValidator{discount: promotions.Discount{Code: "SAVE10", CouponType: enums.CouponTypePercentage, Percentage: decimal.NewFromInt(10)}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"save10","subtotal":"50.00"}`))
	resp := httptest.NewRecorder()

	CouponValidate(v, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !v.last.Subtotal.Equal(decimal.NewFromInt(50)) || v.last.RestaurantID != nil {
		t.Fatalf("unexpected input %+v", v.last)
	}
	var body validateCouponResponse
	decodeData(t, resp, &body)
	if body.Code != "SAVE10" || !body.Percentage.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCouponValidateReturnsTags(t *testing.T) {
	v := &stubValidator{discount: promotions.Discount{
		Code: "LUNCH", CouponType: enums.CouponTypePercentage, Percentage: decimal.NewFromInt(5),
		Tags: []string{"lunch", "weekday"},
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"lunch","subtotal":"20.00"}`))
	resp := httptest.NewRecorder()

	CouponValidate(v, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var body validateCouponResponse
	decodeData(t, resp, &body)
	if len(body.Tags) != 2 || body.Tags[0] != "lunch" || body.Tags[1] != "weekday" {
		t.Fatalf("unexpected tags %v", body.Tags)
	}

	v.discount.Tags = nil
	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"lunch","subtotal":"20.00"}`))
	CouponValidate(v, nil).ServeHTTP(resp, req)
	if !strings.Contains(resp.Body.String(), `"tags":[]`) {
		t.Fatalf("expected empty tags array, got %s", resp.Body.String())
	}
}

func TestCouponValidateRejection(t *testing.T) {
	v := &stubValidator{err: pkgerrors.New(pkgerrors.CodeValidation, "coupon not found")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"nope","subtotal":10}`))
	resp := httptest.NewRecorder()

	CouponValidate(v, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
