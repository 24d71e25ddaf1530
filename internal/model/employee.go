// Package model はドメインモデルを定義する。
package model

import "time"

// Employee は社員名簿の1レコードを表す。
// ID と CreatedAt はストアが採番し、以後変更されない。
type Employee struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	DateOfEmployment Date       `json:"date_of_employment"`
	DateOfBirth      Date       `json:"date_of_birth"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	Department       Department `json:"department"`
	Position         Position   `json:"position"`
	CreatedAt        time.Time  `json:"created_at"`
}

// FullName は "名 姓" 形式の氏名を返す。
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Department は所属部署を表す。
type Department string

const (
	// DepartmentAnalytics はアナリティクス部門。
	DepartmentAnalytics Department = "Analytics"
	// DepartmentTech はテック部門。
	DepartmentTech Department = "Tech"
)

// Departments は選択可能な部署を表示順で返す。
func Departments() []Department {
	return []Department{DepartmentAnalytics, DepartmentTech}
}

// Valid は定義済みの部署かどうかを返す。
func (d Department) Valid() bool {
	return d == DepartmentAnalytics || d == DepartmentTech
}

// Position は職位を表す。
type Position string

const (
	PositionJunior Position = "Junior"
	PositionMedior Position = "Medior"
	PositionSenior Position = "Senior"
)

// Positions は選択可能な職位を表示順で返す。
func Positions() []Position {
	return []Position{PositionJunior, PositionMedior, PositionSenior}
}

// Valid は定義済みの職位かどうかを返す。
func (p Position) Valid() bool {
	switch p {
	case PositionJunior, PositionMedior, PositionSenior:
		return true
	default:
		return false
	}
}

// EmployeeFields は社員追加時に呼び出し側が指定するフィールド。
// ID と CreatedAt は含まない。
type EmployeeFields struct {
	FirstName        string
	LastName         string
	DateOfEmployment Date
	DateOfBirth      Date
	Phone            string
	Email            string
	Department       Department
	Position         Position
}

// EmployeeChanges は部分更新の内容を表す。
// nilフィールドは変更しない。
type EmployeeChanges struct {
	FirstName        *string
	LastName         *string
	DateOfEmployment *Date
	DateOfBirth      *Date
	Phone            *string
	Email            *string
	Department       *Department
	Position         *Position
}

// ChangesFromFields は全フィールドを置き換える EmployeeChanges を生成する。
// 編集フォームの送信内容をそのまま更新に使う場合に利用する。
func ChangesFromFields(f EmployeeFields) EmployeeChanges {
	return EmployeeChanges{
		FirstName:        &f.FirstName,
		LastName:         &f.LastName,
		DateOfEmployment: &f.DateOfEmployment,
		DateOfBirth:      &f.DateOfBirth,
		Phone:            &f.Phone,
		Email:            &f.Email,
		Department:       &f.Department,
		Position:         &f.Position,
	}
}

// Apply は変更内容を e に反映したコピーを返す。
// ID と CreatedAt には触れない。
func (c EmployeeChanges) Apply(e Employee) Employee {
	if c.FirstName != nil {
		e.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		e.LastName = *c.LastName
	}
	if c.DateOfEmployment != nil {
		e.DateOfEmployment = *c.DateOfEmployment
	}
	if c.DateOfBirth != nil {
		e.DateOfBirth = *c.DateOfBirth
	}
	if c.Phone != nil {
		e.Phone = *c.Phone
	}
	if c.Email != nil {
		e.Email = *c.Email
	}
	if c.Department != nil {
		e.Department = *c.Department
	}
	if c.Position != nil {
		e.Position = *c.Position
	}
	return e
}

// Fields は e の可変フィールドを EmployeeFields として返す。
func (e Employee) Fields() EmployeeFields {
	return EmployeeFields{
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		DateOfEmployment: e.DateOfEmployment,
		DateOfBirth:      e.DateOfBirth,
		Phone:            e.Phone,
		Email:            e.Email,
		Department:       e.Department,
		Position:         e.Position,
	}
}
