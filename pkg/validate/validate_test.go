package validate_test

import (
	"testing"

	"github.com/lmorales/tienda/pkg/validate"
)

type addItemInput struct {
	ProductID uint   `json:"product_id" validate:"required,gte=1"`
	Quantity  int    `json:"quantity"   validate:"required,gte=1,lte=999"`
	Note      string `json:"note"       validate:"nullable,max=200"`
}

type signupInput struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"nullable,in=admin,user"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(addItemInput{ProductID: 3, Quantity: 2})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(addItemInput{})
	if !validate.HasErrors(errs) {
		t.Error("expected required errors")
	}
	if _, ok := errs["product_id"]; !ok {
		t.Error("expected product_id to be required")
	}
	if _, ok := errs["quantity"]; !ok {
		t.Error("expected quantity to be required")
	}
}

func TestBoundsFail(t *testing.T) {
	errs := validate.Struct(addItemInput{ProductID: 1, Quantity: 1000})
	if _, ok := errs["quantity"]; !ok {
		t.Errorf("expected quantity bound error, got: %v", errs)
	}
}

func TestEmailAndIn(t *testing.T) {
	errs := validate.Struct(signupInput{Name: "ana", Email: "not-an-email", Password: "secret123", Role: "root"})
	if _, ok := errs["email"]; !ok {
		t.Error("expected email error")
	}
	if _, ok := errs["role"]; !ok {
		t.Error("expected role in-list error")
	}

	errs = validate.Struct(signupInput{Name: "ana", Email: "ana@example.com", Password: "secret123", Role: "user"})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestNullableSkipsRules(t *testing.T) {
	errs := validate.Struct(signupInput{Name: "ana", Email: "ana@example.com", Password: "secret123"})
	if _, ok := errs["role"]; ok {
		t.Error("nullable empty role should not be validated")
	}
}
