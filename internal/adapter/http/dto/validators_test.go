package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidators(v)
	return v
}

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Username:  "  alice  ",
		FirstName: " Alice ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "Alice", req.FirstName)
}

func TestSanitizeStruct_SkipsPasswords(t *testing.T) {
	req := LoginRequest{Username: "bob", Password: "  p<a>ss  "}
	SanitizeStruct(&req)

	assert.Equal(t, "  p<a>ss  ", req.Password)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := ProductRequest{Name: "Mug", Description: "nice <script>alert('x')</script> mug"}
	SanitizeStruct(&req)

	assert.Contains(t, req.Description, "&lt;script&gt;")
	assert.NotContains(t, req.Description, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	phone := "  +1 555 0100  "
	req := UpdateProfileRequest{PhoneNumber: &phone}
	SanitizeStruct(&req)

	assert.Equal(t, "+1 555 0100", *req.PhoneNumber)
	assert.Nil(t, req.FirstName)
}

func TestSanitizeStruct_WalksSliceRows(t *testing.T) {
	req := BulkProductsRequest{Products: []BulkProductRow{{Name: "  Bowl "}, {Name: "<b>Cup</b>"}}}
	SanitizeStruct(&req)

	assert.Equal(t, "Bowl", req.Products[0].Name)
	assert.Equal(t, "&lt;b&gt;Cup&lt;/b&gt;", req.Products[1].Name)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	req := LoginRequest{Username: "  dave  "}
	SanitizeStruct(req)
	assert.Equal(t, "  dave  ", req.Username)
}

// --- validator tests ---

func TestValidateMoney(t *testing.T) {
	v := newValidator()
	tests := []struct {
		amount string
		ok     bool
	}{
		{"10.00", true},
		{"0.01", true},
		{"5", true},
		{"0", false},
		{"-1.00", false},
		{"1.001", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			req := AddFundsRequest{Amount: decimal.RequireFromString(tt.amount)}
			err := v.Struct(req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateMoney_OptionalPointer(t *testing.T) {
	v := newValidator()
	assert.NoError(t, v.Struct(ProductPatchRequest{}))

	bad := decimal.RequireFromString("-2")
	assert.Error(t, v.Struct(ProductPatchRequest{Price: &bad}))
}

func TestValidateSafeID(t *testing.T) {
	v := newValidator()
	base := RegisterRequest{
		Email:           "a@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
		FirstName:       "A",
		LastName:        "B",
	}

	ok := base
	ok.Username = "jane.doe_01"
	assert.NoError(t, v.Struct(ok))

	bad := base
	bad.Username = "jane doe;"
	assert.Error(t, v.Struct(bad))
}

func TestRegisterRequest_PasswordConfirmMustMatch(t *testing.T) {
	v := newValidator()
	req := RegisterRequest{
		Username:        "jane",
		Email:           "jane@example.com",
		Password:        "password123",
		PasswordConfirm: "password124",
		FirstName:       "Jane",
		LastName:        "Doe",
	}
	assert.Error(t, v.Struct(req))

	req.PasswordConfirm = req.Password
	assert.NoError(t, v.Struct(req))
}

func TestRegisterRequest_RoleChoice(t *testing.T) {
	v := newValidator()
	req := RegisterRequest{
		Username:        "jane",
		Email:           "jane@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
		FirstName:       "Jane",
		LastName:        "Doe",
		Role:            "ROOT",
	}
	assert.Error(t, v.Struct(req))
}
