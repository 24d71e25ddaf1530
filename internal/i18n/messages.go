package i18n

// メッセージキー
const (
	KeyAppTitle        = "app.title"
	KeyNavEmployees    = "nav.employees"
	KeyNavAddNew       = "nav.add_new"
	KeyNavSwitchLocale = "nav.switch_locale"

	KeyListTitle       = "list.title"
	KeyListSearch      = "list.search_placeholder"
	KeyListEmpty       = "list.empty"
	KeyListViewList    = "list.view_list"
	KeyListViewGrid    = "list.view_grid"
	KeyListActions     = "list.actions"
	KeyListEdit        = "list.edit"
	KeyListDelete      = "list.delete"
	KeyListChanged     = "list.changed"
	KeyPagePrevious    = "pagination.previous"
	KeyPageNext        = "pagination.next"
	KeyPageOf          = "pagination.page_of"
	KeyFieldFirstName  = "field.first_name"
	KeyFieldLastName   = "field.last_name"
	KeyFieldEmployment = "field.date_of_employment"
	KeyFieldBirth      = "field.date_of_birth"
	KeyFieldPhone      = "field.phone"
	KeyFieldEmail      = "field.email"
	KeyFieldDepartment = "field.department"
	KeyFieldPosition   = "field.position"
	KeyFieldSelect     = "field.please_select"

	KeyFormAddTitle  = "form.add_title"
	KeyFormEditTitle = "form.edit_title"
	KeyFormEditing   = "form.editing"
	KeyFormSave      = "form.save"
	KeyFormCancel    = "form.cancel"

	KeyDeleteTitle   = "delete.title"
	KeyDeleteBody    = "delete.body"
	KeyDeleteProceed = "delete.proceed"

	KeyNotFoundTitle = "notfound.title"
	KeyNotFoundBack  = "notfound.back"

	KeyErrFirstNameRequired  = "error.first_name_required"
	KeyErrLastNameRequired   = "error.last_name_required"
	KeyErrEmploymentRequired = "error.date_of_employment_required"
	KeyErrBirthRequired      = "error.date_of_birth_required"
	KeyErrPhoneRequired      = "error.phone_required"
	KeyErrEmailInvalid       = "error.email_invalid"
	KeyErrDepartmentRequired = "error.department_required"
	KeyErrPositionRequired   = "error.position_required"
	KeyErrDateInvalid        = "error.date_invalid"
	KeyErrOptionInvalid      = "error.option_invalid"
)

// 選択肢のラベルは値そのものをキーにする（例: "option.Analytics"）。
const optionPrefix = "option."

// OptionKey は部署・職位の値に対応するメッセージキーを返す。
func OptionKey(value string) string {
	return optionPrefix + value
}

var messagesEN = map[string]string{
	KeyAppTitle:        "Employee Directory",
	KeyNavEmployees:    "Employees",
	KeyNavAddNew:       "Add New",
	KeyNavSwitchLocale: "TR",

	KeyListTitle:    "Employee List",
	KeyListSearch:   "Search employees...",
	KeyListEmpty:    "No employees found.",
	KeyListViewList: "List view",
	KeyListViewGrid: "Grid view",
	KeyListActions:  "Actions",
	KeyListEdit:     "Edit",
	KeyListDelete:   "Delete",
	KeyListChanged:  "The employee list has changed.",
	KeyPagePrevious: "Previous",
	KeyPageNext:     "Next",
	KeyPageOf:       "Page {0} of {1}",

	KeyFieldFirstName:  "First Name",
	KeyFieldLastName:   "Last Name",
	KeyFieldEmployment: "Date of Employment",
	KeyFieldBirth:      "Date of Birth",
	KeyFieldPhone:      "Phone",
	KeyFieldEmail:      "Email",
	KeyFieldDepartment: "Department",
	KeyFieldPosition:   "Position",
	KeyFieldSelect:     "Please Select",

	KeyFormAddTitle:  "Add Employee",
	KeyFormEditTitle: "Edit Employee",
	KeyFormEditing:   "You are editing {0} {1}",
	KeyFormSave:      "Save",
	KeyFormCancel:    "Cancel",

	KeyDeleteTitle:   "Are you sure?",
	KeyDeleteBody:    "Selected Employee record of {0} will be deleted",
	KeyDeleteProceed: "Proceed",

	KeyNotFoundTitle: "Not found",
	KeyNotFoundBack:  "Back to the employee list",

	KeyErrFirstNameRequired:  "First name is required",
	KeyErrLastNameRequired:   "Last name is required",
	KeyErrEmploymentRequired: "Date of employment is required",
	KeyErrBirthRequired:      "Date of birth is required",
	KeyErrPhoneRequired:      "Phone number is required",
	KeyErrEmailInvalid:       "Invalid email address",
	KeyErrDepartmentRequired: "Department is required",
	KeyErrPositionRequired:   "Position is required",
	KeyErrDateInvalid:        "Enter the date as YYYY-MM-DD",
	KeyErrOptionInvalid:      "Choose one of the listed options",

	optionPrefix + "Analytics": "Analytics",
	optionPrefix + "Tech":      "Tech",
	optionPrefix + "Junior":    "Junior",
	optionPrefix + "Medior":    "Medior",
	optionPrefix + "Senior":    "Senior",
}

var messagesTR = map[string]string{
	KeyAppTitle:        "Çalışan Rehberi",
	KeyNavEmployees:    "Çalışanlar",
	KeyNavAddNew:       "Yeni Ekle",
	KeyNavSwitchLocale: "EN",

	KeyListTitle:    "Çalışan Listesi",
	KeyListSearch:   "Çalışan ara...",
	KeyListEmpty:    "Çalışan bulunamadı.",
	KeyListViewList: "Liste görünümü",
	KeyListViewGrid: "Kart görünümü",
	KeyListActions:  "İşlemler",
	KeyListEdit:     "Düzenle",
	KeyListDelete:   "Sil",
	KeyListChanged:  "Çalışan listesi değişti.",
	KeyPagePrevious: "Önceki",
	KeyPageNext:     "Sonraki",
	KeyPageOf:       "Sayfa {0} / {1}",

	KeyFieldFirstName:  "Ad",
	KeyFieldLastName:   "Soyad",
	KeyFieldEmployment: "İşe Başlama Tarihi",
	KeyFieldBirth:      "Doğum Tarihi",
	KeyFieldPhone:      "Telefon",
	KeyFieldEmail:      "E-posta",
	KeyFieldDepartment: "Departman",
	KeyFieldPosition:   "Pozisyon",
	KeyFieldSelect:     "Lütfen Seçiniz",

	KeyFormAddTitle:  "Çalışan Ekle",
	KeyFormEditTitle: "Çalışanı Düzenle",
	KeyFormEditing:   "{0} {1} kaydını düzenliyorsunuz",
	KeyFormSave:      "Kaydet",
	KeyFormCancel:    "İptal",

	KeyDeleteTitle:   "Emin misiniz?",
	KeyDeleteBody:    "{0} adlı çalışanın kaydı silinecek",
	KeyDeleteProceed: "Devam Et",

	KeyNotFoundTitle: "Bulunamadı",
	KeyNotFoundBack:  "Çalışan listesine dön",

	KeyErrFirstNameRequired:  "Ad zorunludur",
	KeyErrLastNameRequired:   "Soyad zorunludur",
	KeyErrEmploymentRequired: "İşe başlama tarihi zorunludur",
	KeyErrBirthRequired:      "Doğum tarihi zorunludur",
	KeyErrPhoneRequired:      "Telefon numarası zorunludur",
	KeyErrEmailInvalid:       "Geçersiz e-posta adresi",
	KeyErrDepartmentRequired: "Departman zorunludur",
	KeyErrPositionRequired:   "Pozisyon zorunludur",
	KeyErrDateInvalid:        "Tarihi YYYY-AA-GG biçiminde giriniz",
	KeyErrOptionInvalid:      "Listelenen seçeneklerden birini seçiniz",

	optionPrefix + "Analytics": "Analitik",
	optionPrefix + "Tech":      "Teknoloji",
	optionPrefix + "Junior":    "Junior",
	optionPrefix + "Medior":    "Medior",
	optionPrefix + "Senior":    "Senior",
}
