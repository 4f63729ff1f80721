package admin

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestValidateCreateStore(t *testing.T) {
	cases := []struct {
		body   CreateStoreRequest
		ok     bool
		wanted string
	}{
		{CreateStoreRequest{Code: " s01 ", Name: " Kadıköy "}, true, "S01"},
		{CreateStoreRequest{Code: "", Name: "Kadıköy"}, false, ""},
		{CreateStoreRequest{Code: "S01", Name: "  "}, false, ""},
		{CreateStoreRequest{Code: "S0123456789012345678901", Name: "Uzun"}, false, ""},
	}
	for _, c := range cases {
		body := c.body
		err := ValidateCreateStore(&body)
		if c.ok {
			if err != nil {
				t.Fatalf("%+v: unexpected error: %v", c.body, err)
			}
			if body.Code != c.wanted || body.Name != "Kadıköy" {
				t.Fatalf("expected normalized body, got %+v", body)
			}
			continue
		}
		var fe *fiber.Error
		if !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
			t.Fatalf("%+v: expected 400, got %v", c.body, err)
		}
	}
}
