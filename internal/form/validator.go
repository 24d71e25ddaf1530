package form

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/tr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	tr_translations "github.com/go-playground/validator/v10/translations/tr"

	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/model"
	"github.com/hitoshi/empdir/internal/security"
)

// ValidationError はフィールド単位のバリデーション失敗を表す。
// Fields のキーはフォームのフィールド名、値は表示用のメッセージ。
type ValidationError struct {
	Fields map[string]string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// requiredKeys はフィールドごとの必須エラーのメッセージキー。
var requiredKeys = map[string]string{
	FieldFirstName:        i18n.KeyErrFirstNameRequired,
	FieldLastName:         i18n.KeyErrLastNameRequired,
	FieldDateOfEmployment: i18n.KeyErrEmploymentRequired,
	FieldDateOfBirth:      i18n.KeyErrBirthRequired,
	FieldPhone:            i18n.KeyErrPhoneRequired,
	FieldEmail:            i18n.KeyErrEmailInvalid,
	FieldDepartment:       i18n.KeyErrDepartmentRequired,
	FieldPosition:         i18n.KeyErrPositionRequired,
}

// Validator は社員入力をサニタイズしてから検証する。並行利用できる。
type Validator struct {
	validate   *validator.Validate
	translator *ut.UniversalTranslator
	catalog    *i18n.Catalog
	sanitizer  security.TextSanitizer
}

// NewValidator は Validator を生成する。
// 個別のメッセージを持たないタグは validator 標準の en/tr 翻訳で表示する。
func NewValidator(catalog *i18n.Catalog, sanitizer security.TextSanitizer) (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, tr.New())

	enTrans, _ := uni.GetTranslator(i18n.LocaleEN)
	if err := en_translations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, fmt.Errorf("failed to register en translations: %w", err)
	}
	trTrans, _ := uni.GetTranslator(i18n.LocaleTR)
	if err := tr_translations.RegisterDefaultTranslations(validate, trTrans); err != nil {
		return nil, fmt.Errorf("failed to register tr translations: %w", err)
	}

	return &Validator{
		validate:   validate,
		translator: uni,
		catalog:    catalog,
		sanitizer:  sanitizer,
	}, nil
}

// Sanitize は全ての文字列フィールドをサニタイズした入力を返す。
func (v *Validator) Sanitize(in EmployeeInput) EmployeeInput {
	s := v.sanitizer.Sanitize
	return EmployeeInput{
		FirstName:        s(in.FirstName),
		LastName:         s(in.LastName),
		DateOfEmployment: s(in.DateOfEmployment),
		DateOfBirth:      s(in.DateOfBirth),
		Phone:            s(in.Phone),
		Email:            s(in.Email),
		Department:       s(in.Department),
		Position:         s(in.Position),
	}
}

// Validate は in の全フィールドをサニタイズして検証し、ストアに渡せる値を返す。
// 全フィールドを送信する追加・編集フォームに使う。
// 検証に失敗した場合は locale のメッセージを持つ *ValidationError を返す。
func (v *Validator) Validate(in EmployeeInput, locale string) (model.EmployeeFields, error) {
	return v.check(v.Sanitize(in), locale)
}

// ValidatePatch は p で指定されたフィールドだけをサニタイズして current に重ね、
// 変更後のレコード全体を検証する。保存済みの値には手を加えない。
func (v *Validator) ValidatePatch(current model.Employee, p Patch, locale string) (model.EmployeeFields, error) {
	return v.check(v.sanitizePatch(p).ApplyTo(FromEmployee(current)), locale)
}

// sanitizePatch は指定されたフィールドのみをサニタイズした Patch を返す。
func (v *Validator) sanitizePatch(p Patch) Patch {
	s := func(src *string) *string {
		if src == nil {
			return nil
		}
		out := v.sanitizer.Sanitize(*src)
		return &out
	}
	return Patch{
		FirstName:        s(p.FirstName),
		LastName:         s(p.LastName),
		DateOfEmployment: s(p.DateOfEmployment),
		DateOfBirth:      s(p.DateOfBirth),
		Phone:            s(p.Phone),
		Email:            s(p.Email),
		Department:       s(p.Department),
		Position:         s(p.Position),
	}
}

// check はサニタイズ済みの in を検証する。
func (v *Validator) check(in EmployeeInput, locale string) (model.EmployeeFields, error) {
	if err := v.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return model.EmployeeFields{}, fmt.Errorf("failed to validate employee: %w", err)
		}
		return model.EmployeeFields{}, v.translate(verrs, locale)
	}

	fields, err := in.fields()
	if err != nil {
		// datetime タグで検証済みのため通常は到達しない
		return model.EmployeeFields{}, fmt.Errorf("failed to convert employee input: %w", err)
	}
	return fields, nil
}

func (v *Validator) translate(verrs validator.ValidationErrors, locale string) *ValidationError {
	l := v.catalog.Localizer(locale)
	trans, ok := v.translator.GetTranslator(l.Locale())
	if !ok {
		trans, _ = v.translator.GetTranslator(i18n.LocaleEN)
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if _, exists := out.Fields[field]; exists {
			continue
		}
		out.Fields[field] = v.message(l, trans, fe)
	}
	return out
}

func (v *Validator) message(l *i18n.Localizer, trans ut.Translator, fe validator.FieldError) string {
	if fe.Field() == FieldEmail {
		return l.T(i18n.KeyErrEmailInvalid)
	}
	switch fe.Tag() {
	case "required":
		if key, ok := requiredKeys[fe.Field()]; ok {
			return l.T(key)
		}
	case "datetime":
		return l.T(i18n.KeyErrDateInvalid)
	case "oneof":
		return l.T(i18n.KeyErrOptionInvalid)
	}
	return fe.Translate(trans)
}
