package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Beneficiary schema field keys.
const (
	FieldLastName            = "last_name"
	FieldFirstName           = "first_name"
	FieldMiddleName          = "middle_name"
	FieldExtName             = "ext_name"
	FieldBirthMonth          = "birth_month"
	FieldBirthDay            = "birth_day"
	FieldBirthYear           = "birth_year"
	FieldSex                 = "sex"
	FieldCivilStatus         = "civil_status"
	FieldStreet              = "street"
	FieldBarangay            = "barangay"
	FieldCityMunicipality    = "city_municipality"
	FieldProvince            = "province"
	FieldDistrict            = "district"
	FieldTypeOfAssistance    = "type_of_assistance"
	FieldAmount              = "amount"
	FieldPhilsysNumber       = "philsys_number"
	FieldContactNumber       = "contact_number"
	FieldBeneficiaryCategory = "beneficiary_category"
	FieldSubCategory         = "sub_category"
)

// Field describes one column of the beneficiary table.
// Width is the export column width in spreadsheet character units.
type Field struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Width float64 `json:"-"`
}

// Schema is the ordered, closed set of beneficiary fields.
var Schema = []Field{
	{Key: FieldLastName, Label: "Last Name", Width: 18},
	{Key: FieldFirstName, Label: "First Name", Width: 18},
	{Key: FieldMiddleName, Label: "Middle Name", Width: 18},
	{Key: FieldExtName, Label: "Extension Name", Width: 10},
	{Key: FieldBirthMonth, Label: "Birth Month", Width: 12},
	{Key: FieldBirthDay, Label: "Birth Day", Width: 10},
	{Key: FieldBirthYear, Label: "Birth Year", Width: 10},
	{Key: FieldSex, Label: "Sex", Width: 8},
	{Key: FieldCivilStatus, Label: "Civil Status", Width: 14},
	{Key: FieldStreet, Label: "Street/Purok", Width: 22},
	{Key: FieldBarangay, Label: "Barangay", Width: 18},
	{Key: FieldCityMunicipality, Label: "City/Municipality", Width: 20},
	{Key: FieldProvince, Label: "Province", Width: 16},
	{Key: FieldDistrict, Label: "District", Width: 10},
	{Key: FieldTypeOfAssistance, Label: "Type of Assistance", Width: 22},
	{Key: FieldAmount, Label: "Amount", Width: 14},
	{Key: FieldPhilsysNumber, Label: "PhilSys Number", Width: 20},
	{Key: FieldContactNumber, Label: "Contact Number", Width: 16},
	{Key: FieldBeneficiaryCategory, Label: "Beneficiary Category", Width: 20},
	{Key: FieldSubCategory, Label: "Sub-Category", Width: 18},
}

// FieldByKey looks up a schema field.
func FieldByKey(key string) (Field, bool) {
	for _, f := range Schema {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Beneficiary 受益人记录（对应 beneficiaries 表/集合）
type Beneficiary struct {
	BeneficiaryID string `json:"beneficiary_id" db:"beneficiary_id"`
	TeamID        string `json:"team_id" db:"team_id"`

	LastName   string `json:"last_name" db:"last_name"`
	FirstName  string `json:"first_name" db:"first_name"`
	MiddleName string `json:"middle_name" db:"middle_name"`
	ExtName    string `json:"ext_name" db:"ext_name"`

	BirthMonth string `json:"birth_month" db:"birth_month"`
	BirthDay   string `json:"birth_day" db:"birth_day"`
	BirthYear  string `json:"birth_year" db:"birth_year"`

	Sex         string `json:"sex" db:"sex"`
	CivilStatus string `json:"civil_status" db:"civil_status"`

	Street           string `json:"street" db:"street"`
	Barangay         string `json:"barangay" db:"barangay"`
	CityMunicipality string `json:"city_municipality" db:"city_municipality"`
	Province         string `json:"province" db:"province"`
	District         string `json:"district" db:"district"`

	TypeOfAssistance string          `json:"type_of_assistance" db:"type_of_assistance"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`

	PhilsysNumber       string `json:"philsys_number" db:"philsys_number"`
	ContactNumber       string `json:"contact_number" db:"contact_number"`
	BeneficiaryCategory string `json:"beneficiary_category" db:"beneficiary_category"`
	SubCategory         string `json:"sub_category" db:"sub_category"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// stringFields maps every text field key to its storage slot. amount is the
// only field not in this table.
var stringFields = map[string]func(b *Beneficiary) *string{
	FieldLastName:            func(b *Beneficiary) *string { return &b.LastName },
	FieldFirstName:           func(b *Beneficiary) *string { return &b.FirstName },
	FieldMiddleName:          func(b *Beneficiary) *string { return &b.MiddleName },
	FieldExtName:             func(b *Beneficiary) *string { return &b.ExtName },
	FieldBirthMonth:          func(b *Beneficiary) *string { return &b.BirthMonth },
	FieldBirthDay:            func(b *Beneficiary) *string { return &b.BirthDay },
	FieldBirthYear:           func(b *Beneficiary) *string { return &b.BirthYear },
	FieldSex:                 func(b *Beneficiary) *string { return &b.Sex },
	FieldCivilStatus:         func(b *Beneficiary) *string { return &b.CivilStatus },
	FieldStreet:              func(b *Beneficiary) *string { return &b.Street },
	FieldBarangay:            func(b *Beneficiary) *string { return &b.Barangay },
	FieldCityMunicipality:    func(b *Beneficiary) *string { return &b.CityMunicipality },
	FieldProvince:            func(b *Beneficiary) *string { return &b.Province },
	FieldDistrict:            func(b *Beneficiary) *string { return &b.District },
	FieldTypeOfAssistance:    func(b *Beneficiary) *string { return &b.TypeOfAssistance },
	FieldPhilsysNumber:       func(b *Beneficiary) *string { return &b.PhilsysNumber },
	FieldContactNumber:       func(b *Beneficiary) *string { return &b.ContactNumber },
	FieldBeneficiaryCategory: func(b *Beneficiary) *string { return &b.BeneficiaryCategory },
	FieldSubCategory:         func(b *Beneficiary) *string { return &b.SubCategory },
}

// Get returns the raw value of a schema field. A zero amount reads as "".
func (b *Beneficiary) Get(key string) string {
	if key == FieldAmount {
		if b.Amount.IsZero() {
			return ""
		}
		return b.Amount.String()
	}
	if slot, ok := stringFields[key]; ok {
		return *slot(b)
	}
	return ""
}

// Set assigns a schema field from text, trimming it first.
func (b *Beneficiary) Set(key, value string) error {
	value = strings.TrimSpace(value)
	if key == FieldAmount {
		amount, err := ParseAmount(value)
		if err != nil {
			return err
		}
		b.Amount = amount
		return nil
	}
	slot, ok := stringFields[key]
	if !ok {
		return fmt.Errorf("unknown field %q", key)
	}
	*slot(b) = value
	return nil
}

// Normalize trims every text field in place.
func (b *Beneficiary) Normalize() {
	for _, slot := range stringFields {
		p := slot(b)
		*p = strings.TrimSpace(*p)
	}
}

// IsEmpty reports whether every schema field is blank and the amount is zero.
func (b *Beneficiary) IsEmpty() bool {
	if !b.Amount.IsZero() {
		return false
	}
	for _, slot := range stringFields {
		if strings.TrimSpace(*slot(b)) != "" {
			return false
		}
	}
	return true
}

// Fields returns the schema values keyed by field key.
func (b *Beneficiary) Fields() map[string]string {
	out := make(map[string]string, len(Schema))
	for _, f := range Schema {
		out[f.Key] = b.Get(f.Key)
	}
	return out
}

// FullName 用于日志与重复项展示
func (b *Beneficiary) FullName() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{b.FirstName, b.MiddleName, b.LastName, b.ExtName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ParseAmount accepts plain numbers as well as exported display values such
// as "₱1,234.50", "-₱5.00" or "PHP 1,000".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "-₱"); ok {
		s = "-" + rest
	}
	s = strings.TrimPrefix(s, "₱")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "PHP"), "Php")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
