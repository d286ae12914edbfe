package model

// Type is the kind of manifestation the citizen selected.
type Type string

const (
	TypeComplaint  Type = "reclamacao"
	TypeSuggestion Type = "sugestao"
	TypeCompliment Type = "elogio"
	TypeReport     Type = "denuncia"
	TypeRequest    Type = "solicitacao"
)

// Types lists the manifestation types in display order.
var Types = []Type{TypeComplaint, TypeSuggestion, TypeCompliment, TypeReport, TypeRequest}

var typeLabels = map[Type]string{
	TypeComplaint:  "Reclamação",
	TypeSuggestion: "Sugestão",
	TypeCompliment: "Elogio",
	TypeReport:     "Denúncia",
	TypeRequest:    "Solicitação",
}

// Label returns the display name; unknown keys are returned unchanged.
func (t Type) Label() string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// Department catalog keys.
const (
	DepartmentHealth         = "saude"
	DepartmentEducation      = "educacao"
	DepartmentTransport      = "transporte"
	DepartmentSafety         = "seguranca"
	DepartmentInfrastructure = "obras"
	DepartmentSocial         = "desenvolvimento"
	DepartmentOther          = "outro"
)

// DefaultDepartment is the catch-all ombudsman office.
const DefaultDepartment = "Ouvidoria-Geral do DF"

var departmentNames = map[string]string{
	DepartmentHealth:         "Secretaria de Estado de Saúde do DF",
	DepartmentEducation:      "Secretaria de Estado de Educação do DF",
	DepartmentTransport:      "Secretaria de Estado de Transporte e Mobilidade",
	DepartmentSafety:         "Secretaria de Estado de Segurança Pública",
	DepartmentInfrastructure: "Secretaria de Estado de Obras e Infraestrutura",
	DepartmentSocial:         "Secretaria de Estado de Desenvolvimento Social",
	DepartmentOther:          DefaultDepartment,
}

// Departments lists the department keys in display order.
var Departments = []string{
	DepartmentHealth,
	DepartmentEducation,
	DepartmentTransport,
	DepartmentSafety,
	DepartmentInfrastructure,
	DepartmentSocial,
	DepartmentOther,
}

// DepartmentName resolves a catalog key to the full department name.
// Empty or unknown keys resolve to DefaultDepartment.
func DepartmentName(key string) string {
	if name, ok := departmentNames[key]; ok {
		return name
	}
	return DefaultDepartment
}

// KnownDepartment reports whether key is in the catalog.
func KnownDepartment(key string) bool {
	_, ok := departmentNames[key]
	return ok
}

var statusLabels = map[Status]string{
	StatusReceived:    "Manifestação Recebida",
	StatusUnderReview: "Em Análise",
	StatusAnswered:    "Respondida",
	StatusArchived:    "Arquivada",
}

// Label returns the human-readable status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}
