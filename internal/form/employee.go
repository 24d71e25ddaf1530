// Package form は社員フォーム（HTMLフォームおよびJSON）の入力値の
// 取り込み・サニタイズ・バリデーションを行う。
package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/hitoshi/empdir/internal/model"
)

// フォームのフィールド名。JSONのキーと共通。
const (
	FieldFirstName        = "first_name"
	FieldLastName         = "last_name"
	FieldDateOfEmployment = "date_of_employment"
	FieldDateOfBirth      = "date_of_birth"
	FieldPhone            = "phone"
	FieldEmail            = "email"
	FieldDepartment       = "department"
	FieldPosition         = "position"
)

// EmployeeInput は未検証の社員入力。
// 日付はフォームの input[type=date] と同じ "YYYY-MM-DD" 文字列で受け取る。
type EmployeeInput struct {
	FirstName        string `json:"first_name" validate:"required,max=64"`
	LastName         string `json:"last_name" validate:"required,max=64"`
	DateOfEmployment string `json:"date_of_employment" validate:"required,datetime=2006-01-02"`
	DateOfBirth      string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Phone            string `json:"phone" validate:"required,max=32"`
	Email            string `json:"email" validate:"required,email,max=254"`
	Department       string `json:"department" validate:"required,oneof=Analytics Tech"`
	Position         string `json:"position" validate:"required,oneof=Junior Medior Senior"`
}

// FromValues はHTMLフォームの送信値から EmployeeInput を組み立てる。
func FromValues(v url.Values) EmployeeInput {
	return EmployeeInput{
		FirstName:        v.Get(FieldFirstName),
		LastName:         v.Get(FieldLastName),
		DateOfEmployment: v.Get(FieldDateOfEmployment),
		DateOfBirth:      v.Get(FieldDateOfBirth),
		Phone:            v.Get(FieldPhone),
		Email:            v.Get(FieldEmail),
		Department:       v.Get(FieldDepartment),
		Position:         v.Get(FieldPosition),
	}
}

// FromEmployee は既存社員の値で EmployeeInput を組み立てる。編集フォームの初期値に使う。
func FromEmployee(e model.Employee) EmployeeInput {
	return EmployeeInput{
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		DateOfEmployment: e.DateOfEmployment.String(),
		DateOfBirth:      e.DateOfBirth.String(),
		Phone:            e.Phone,
		Email:            e.Email,
		Department:       string(e.Department),
		Position:         string(e.Position),
	}
}

// ErrMalformedBody はリクエストボディがJSONとして解釈できないことを表す。
var ErrMalformedBody = errors.New("malformed request body")

// DecodeJSON はJSONボディから EmployeeInput を読み取る。未知のキーは拒否する。
func DecodeJSON(r io.Reader) (EmployeeInput, error) {
	var in EmployeeInput
	if err := decodeStrict(r, &in); err != nil {
		return EmployeeInput{}, err
	}
	return in, nil
}

// Patch はJSONによる部分更新の入力。nilのフィールドは変更しない。
type Patch struct {
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	DateOfEmployment *string `json:"date_of_employment"`
	DateOfBirth      *string `json:"date_of_birth"`
	Phone            *string `json:"phone"`
	Email            *string `json:"email"`
	Department       *string `json:"department"`
	Position         *string `json:"position"`
}

// DecodePatch はJSONボディから Patch を読み取る。
func DecodePatch(r io.Reader) (Patch, error) {
	var p Patch
	if err := decodeStrict(r, &p); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// ApplyTo は p を in に重ねた入力を返す。結果は全体としてバリデーションする。
func (p Patch) ApplyTo(in EmployeeInput) EmployeeInput {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&in.FirstName, p.FirstName)
	set(&in.LastName, p.LastName)
	set(&in.DateOfEmployment, p.DateOfEmployment)
	set(&in.DateOfBirth, p.DateOfBirth)
	set(&in.Phone, p.Phone)
	set(&in.Email, p.Email)
	set(&in.Department, p.Department)
	set(&in.Position, p.Position)
	return in
}

func decodeStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

// fields は検証済みの入力を model.EmployeeFields に変換する。
func (in EmployeeInput) fields() (model.EmployeeFields, error) {
	employment, err := model.ParseDate(in.DateOfEmployment)
	if err != nil {
		return model.EmployeeFields{}, err
	}
	birth, err := model.ParseDate(in.DateOfBirth)
	if err != nil {
		return model.EmployeeFields{}, err
	}
	return model.EmployeeFields{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		DateOfEmployment: employment,
		DateOfBirth:      birth,
		Phone:            in.Phone,
		Email:            in.Email,
		Department:       model.Department(in.Department),
		Position:         model.Position(in.Position),
	}, nil
}

// Values はフォームのフィールド名をキーとする値のマップを返す。フォームの再表示に使う。
func (in EmployeeInput) Values() map[string]string {
	return map[string]string{
		FieldFirstName:        in.FirstName,
		FieldLastName:         in.LastName,
		FieldDateOfEmployment: in.DateOfEmployment,
		FieldDateOfBirth:      in.DateOfBirth,
		FieldPhone:            in.Phone,
		FieldEmail:            in.Email,
		FieldDepartment:       in.Department,
		FieldPosition:         in.Position,
	}
}
