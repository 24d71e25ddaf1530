package form

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/model"
	"github.com/hitoshi/empdir/internal/security"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	catalog, err := i18n.New(i18n.LocaleEN)
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}
	v, err := NewValidator(catalog, security.NewTextSanitizer())
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func validInput() EmployeeInput {
	return EmployeeInput{
		FirstName:        "Zack",
		LastName:         "Zephyr",
		DateOfEmployment: "2024-03-01",
		DateOfBirth:      "1990-07-14",
		Phone:            "+(90) 555 000 11 22",
		Email:            "zack.zephyr@example.com",
		Department:       "Tech",
		Position:         "Senior",
	}
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	return verr.Fields
}

// TestValidate_Valid は正しい入力が EmployeeFields に変換されることを検証する。
func TestValidate_Valid(t *testing.T) {
	v := newValidator(t)

	got, err := v.Validate(validInput(), i18n.LocaleEN)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := model.EmployeeFields{
		FirstName:        "Zack",
		LastName:         "Zephyr",
		DateOfEmployment: model.MustParseDate("2024-03-01"),
		DateOfBirth:      model.MustParseDate("1990-07-14"),
		Phone:            "+(90) 555 000 11 22",
		Email:            "zack.zephyr@example.com",
		Department:       model.DepartmentTech,
		Position:         model.PositionSenior,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

// TestValidate_AllRequired は空の入力で全フィールドに必須メッセージが付くことを検証する。
func TestValidate_AllRequired(t *testing.T) {
	v := newValidator(t)

	_, err := v.Validate(EmployeeInput{}, i18n.LocaleEN)
	got := validationFields(t, err)

	want := map[string]string{
		FieldFirstName:        "First name is required",
		FieldLastName:         "Last name is required",
		FieldDateOfEmployment: "Date of employment is required",
		FieldDateOfBirth:      "Date of birth is required",
		FieldPhone:            "Phone number is required",
		FieldEmail:            "Invalid email address",
		FieldDepartment:       "Department is required",
		FieldPosition:         "Position is required",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

// TestValidate_TurkishMessages はロケール tr でトルコ語のメッセージになることを検証する。
func TestValidate_TurkishMessages(t *testing.T) {
	v := newValidator(t)

	in := validInput()
	in.FirstName = ""
	in.Email = "not-an-email"

	_, err := v.Validate(in, i18n.LocaleTR)
	got := validationFields(t, err)

	want := map[string]string{
		FieldFirstName: "Ad zorunludur",
		FieldEmail:     "Geçersiz e-posta adresi",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_FieldRules(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name   string
		modify func(*EmployeeInput)
		field  string
		want   string
	}{
		{"invalid email", func(in *EmployeeInput) { in.Email = "zack@" }, FieldEmail, "Invalid email address"},
		{"malformed date", func(in *EmployeeInput) { in.DateOfBirth = "14/07/1990" }, FieldDateOfBirth, "Enter the date as YYYY-MM-DD"},
		{"unknown department", func(in *EmployeeInput) { in.Department = "Sales" }, FieldDepartment, "Choose one of the listed options"},
		{"unknown position", func(in *EmployeeInput) { in.Position = "Lead" }, FieldPosition, "Choose one of the listed options"},
		{"markup only name", func(in *EmployeeInput) { in.LastName = "<b></b>" }, FieldLastName, "Last name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)

			_, err := v.Validate(in, i18n.LocaleEN)
			got := validationFields(t, err)
			if len(got) != 1 || got[tt.field] != tt.want {
				t.Errorf("fields = %v, want only %s=%q", got, tt.field, tt.want)
			}
		})
	}
}

// TestValidate_TooLongUsesValidatorTranslation は個別メッセージのないタグが標準翻訳で表示されることを検証する。
func TestValidate_TooLongUsesValidatorTranslation(t *testing.T) {
	v := newValidator(t)

	in := validInput()
	in.FirstName = strings.Repeat("a", 65)

	_, err := v.Validate(in, i18n.LocaleEN)
	got := validationFields(t, err)

	msg, ok := got[FieldFirstName]
	if !ok {
		t.Fatalf("fields = %v, want first_name", got)
	}
	if !strings.Contains(msg, "64") {
		t.Errorf("message = %q, want it to mention the limit", msg)
	}
}

// TestValidate_SanitizesMarkup は送信値のHTMLが除去されることを検証する。
func TestValidate_SanitizesMarkup(t *testing.T) {
	v := newValidator(t)

	in := validInput()
	in.FirstName = `<script>alert(1)</script>Zack`

	got, err := v.Validate(in, i18n.LocaleEN)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.FirstName != "Zack" {
		t.Errorf("FirstName = %q, want Zack", got.FirstName)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"phone": "x", "email": "y"}}
	if got := err.Error(); got != "validation failed: email, phone" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFromValues(t *testing.T) {
	v := url.Values{
		FieldFirstName:  {"Zack"},
		FieldDepartment: {"Tech"},
	}

	got := FromValues(v)
	want := EmployeeInput{FirstName: "Zack", Department: "Tech"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("input mismatch (-want +got):\n%s", diff)
	}
}

func TestFromEmployee(t *testing.T) {
	e := model.Employee{
		ID:               "id-1",
		FirstName:        "Alice",
		LastName:         "Johnson",
		DateOfEmployment: model.MustParseDate("2020-01-15"),
		DateOfBirth:      model.MustParseDate("1990-05-20"),
		Department:       model.DepartmentTech,
		Position:         model.PositionSenior,
	}

	got := FromEmployee(e)
	if got.DateOfEmployment != "2020-01-15" || got.DateOfBirth != "1990-05-20" {
		t.Errorf("dates = %q, %q", got.DateOfEmployment, got.DateOfBirth)
	}
	if got.Department != "Tech" || got.Position != "Senior" {
		t.Errorf("department/position = %q, %q", got.Department, got.Position)
	}
}

func TestDecodeJSON(t *testing.T) {
	body := `{"first_name":"Zack","last_name":"Zephyr","email":"z@example.com"}`

	got, err := DecodeJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if got.FirstName != "Zack" || got.LastName != "Zephyr" || got.Email != "z@example.com" {
		t.Errorf("input = %+v", got)
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "first_name=Zack"},
		{"unknown field", `{"nickname":"Z"}`},
		{"wrong type", `{"first_name":1}`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.body))
			if !errors.Is(err, ErrMalformedBody) {
				t.Errorf("error = %v, want ErrMalformedBody", err)
			}
		})
	}
}

// TestPatch_ApplyTo は指定されたフィールドだけが上書きされることを検証する。
func TestPatch_ApplyTo(t *testing.T) {
	p, err := DecodePatch(strings.NewReader(`{"position":"Medior","phone":"123"}`))
	if err != nil {
		t.Fatalf("DecodePatch: %v", err)
	}

	base := validInput()
	got := p.ApplyTo(base)

	want := base
	want.Position = "Medior"
	want.Phone = "123"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("input mismatch (-want +got):\n%s", diff)
	}
}

// TestValidatePatch_LeavesUnsuppliedFieldsUntouched は指定されていないフィールドを
// サニタイズし直さず、保存済みの値のまま返すことを検証する。
func TestValidatePatch_LeavesUnsuppliedFieldsUntouched(t *testing.T) {
	v := newValidator(t)

	fields, err := validInput().fields()
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	current := model.Employee{ID: "e1"}
	current = model.ChangesFromFields(fields).Apply(current)
	current.FirstName = "Bob <QA>"

	phone := "+90 555 000 0000"
	got, err := v.ValidatePatch(current, Patch{Phone: &phone}, i18n.LocaleEN)
	if err != nil {
		t.Fatalf("ValidatePatch: %v", err)
	}
	if got.FirstName != "Bob <QA>" {
		t.Errorf("FirstName = %q, want it unchanged", got.FirstName)
	}
	if got.Phone != phone {
		t.Errorf("Phone = %q, want %q", got.Phone, phone)
	}
}

// TestValidatePatch_SanitizesSuppliedFields は指定されたフィールドを不動点までサニタイズすることを検証する。
func TestValidatePatch_SanitizesSuppliedFields(t *testing.T) {
	v := newValidator(t)

	fields, err := validInput().fields()
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	current := model.ChangesFromFields(fields).Apply(model.Employee{ID: "e1"})

	name := "Bob &lt;QA&gt;"
	got, err := v.ValidatePatch(current, Patch{FirstName: &name}, i18n.LocaleEN)
	if err != nil {
		t.Fatalf("ValidatePatch: %v", err)
	}
	if got.FirstName != "Bob" {
		t.Errorf("FirstName = %q, want %q", got.FirstName, "Bob")
	}
	if got.LastName != "Zephyr" {
		t.Errorf("LastName = %q, want Zephyr", got.LastName)
	}
}
