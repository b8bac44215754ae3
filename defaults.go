package mqcodec

import "strings"

// Header field names of the standard service header.
const (
	FieldMessageLength    = "LONGITUD DEL MENSAJE"
	FieldChannel          = "CANAL"
	FieldService          = "SERVICIO"
	FieldReturnCode       = "CÓDIGO DE RETORNO"
	FieldMessageID        = "ID DEL MENSAJE"
	FieldDate             = "FECHA"
	FieldTime             = "HORA"
	FieldUser             = "USUARIO"
	FieldLocation         = "UBICACIÓN"
	FieldReturnText       = "TEXTO DEL CÓDIGO DE RETORNO"
	FieldSentState        = "ESTADO ENVIADO"
	FieldComplementary    = "CAMPO COMPLEMENTARIO"
	defaultReturnCode     = "0000"
	defaultSentState      = "00"
	defaultReturnTextSize = 45
)

// wellKnownDefaults holds the canned values of the standard header fields,
// keyed by canonical name.
var wellKnownDefaults = map[string]string{
	Canonicalize(FieldMessageLength): "000643",
	Canonicalize(FieldChannel):       "OT",
	Canonicalize(FieldService):       "3050",
	Canonicalize(FieldReturnCode):    defaultReturnCode,
	Canonicalize(FieldMessageID):     "000000761",
	Canonicalize(FieldDate):          "18092012",
	Canonicalize(FieldTime):          "114044",
	Canonicalize(FieldUser):          "PASCUAL",
	Canonicalize(FieldLocation):      "1047",
	Canonicalize(FieldReturnText):    strings.Repeat(" ", defaultReturnTextSize),
	Canonicalize(FieldSentState):     defaultSentState,
	Canonicalize(FieldComplementary): "     ",
}

// DefaultValue supplies the value of a field nobody gave a value for: the
// declared default, then the well-known header table, then zeros for
// numeric fields and spaces for the rest. It never fails.
func DefaultValue(f *Field) string {
	if f == nil {
		return ""
	}
	if f.DefaultValue != nil {
		return *f.DefaultValue
	}
	if v, ok := wellKnownDefaults[f.canonical]; ok {
		return v
	}
	return typeDefault(f.Type, f.Length)
}

func typeDefault(t FieldType, length int) string {
	if t == FieldTypeNumeric {
		return strings.Repeat("0", length)
	}
	return strings.Repeat(" ", length)
}

// DefaultHeaderConfig is the standard twelve field service header, 102
// positions long.
func DefaultHeaderConfig() *HeaderConfig {
	return &HeaderConfig{
		TotalLength: 102,
		Fields: []FieldConfig{
			{Name: FieldMessageLength, Length: 6, Type: "numerico", Description: "Longitud total del mensaje"},
			{Name: FieldChannel, Length: 2, Type: "alfanumerico", Description: "Canal de origen"},
			{Name: FieldService, Length: 4, Type: "numerico", Description: "Código de servicio"},
			{Name: FieldReturnCode, Length: 4, Type: "numerico", Description: "Código de retorno"},
			{Name: FieldMessageID, Length: 9, Type: "numerico", Description: "Identificador del mensaje"},
			{Name: FieldDate, Length: 8, Type: "numerico", Description: "Fecha DDMMAAAA"},
			{Name: FieldTime, Length: 6, Type: "numerico", Description: "Hora HHMMSS"},
			{Name: FieldUser, Length: 7, Type: "alfanumerico", Description: "Usuario"},
			{Name: FieldLocation, Length: 4, Type: "numerico", Description: "Ubicación"},
			{Name: FieldReturnText, Length: defaultReturnTextSize, Type: "alfanumerico", Description: "Texto del código de retorno"},
			{Name: FieldSentState, Length: 2, Type: "numerico", Description: "Estado enviado"},
			{Name: FieldComplementary, Length: 5, Type: "alfanumerico", Description: "Campo complementario"},
		},
	}
}
