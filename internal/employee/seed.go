package employee

import (
	"strings"
	"time"

	"github.com/hitoshi/empdir/internal/model"
)

// SeedEmployees は初期表示用の10名分の社員レコードを返す。
// 全レコードの CreatedAt は createdAt で揃え、並び順は挿入順で決まる。
func SeedEmployees(createdAt time.Time) []model.Employee {
	seeds := []struct {
		id, first, last, employed, born, phone string
		dept                                   model.Department
		pos                                    model.Position
	}{
		{"UYYi0fV0F1y2kwEvIOAaF", "Alice", "Johnson", "2023-01-01", "1993-01-01", "555-1234", model.DepartmentTech, model.PositionJunior},
		{"p6FXZCq01JSZtrTF6", "Bob", "Smith", "2022-01-01", "1998-01-01", "555-5678", model.DepartmentAnalytics, model.PositionMedior},
		{"BPZ_T_rqOt-vNry-q8alk", "Charlie", "Brown", "2021-01-01", "1990-01-01", "555-8765", model.DepartmentTech, model.PositionSenior},
		{"ijOIRBAhgseNuIfBxMcR-", "David", "Wilson", "2020-01-01", "1985-01-01", "555-4321", model.DepartmentAnalytics, model.PositionJunior},
		{"5VKUX0T8uN69BFr6Lglon", "Eve", "Davis", "2019-01-01", "1992-01-01", "555-9876", model.DepartmentTech, model.PositionSenior},
		{"o8Qu2jKvZa7C9-qDdOZUN", "Frank", "Moore", "2018-01-01", "1980-01-01", "555-6543", model.DepartmentAnalytics, model.PositionMedior},
		{"V468j49HycIcafmyFDtrT", "Grace", "Lee", "2017-01-01", "1988-01-01", "555-3210", model.DepartmentTech, model.PositionJunior},
		{"5gjRpcHLYbIA0sXpMUfSS", "Hannah", "Kim", "2016-01-01", "1995-01-01", "555-2468", model.DepartmentTech, model.PositionSenior},
		{"6gkR2jKvZa7C9-qDdOZUN", "Ian", "Brown", "2015-01-01", "1990-01-01", "555-6543", model.DepartmentAnalytics, model.PositionJunior},
		{"7gkR2jKvZa7C9-qDdOZUN", "Jack", "White", "2014-01-01", "1989-01-01", "555-9876", model.DepartmentTech, model.PositionSenior},
	}

	out := make([]model.Employee, len(seeds))
	for i, s := range seeds {
		out[i] = model.Employee{
			ID:               s.id,
			FirstName:        s.first,
			LastName:         s.last,
			DateOfEmployment: model.MustParseDate(s.employed),
			DateOfBirth:      model.MustParseDate(s.born),
			Phone:            s.phone,
			Email:            strings.ToLower(s.first + "." + s.last) + "@example.com",
			Department:       s.dept,
			Position:         s.pos,
			CreatedAt:        createdAt,
		}
	}
	return out
}
