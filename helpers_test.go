package mqcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testHeader is 14 positions: LONGITUD(6) CANAL(2) CÓDIGO DE RETORNO(4) ESTADO ENVIADO(2).
func testHeader() *HeaderConfig {
	return &HeaderConfig{
		TotalLength: 14,
		Fields: []FieldConfig{
			{Name: "LONGITUD", Length: 6, Type: "Numérico"},
			{Name: FieldChannel, Length: 2, Type: "Alfanumérico"},
			{Name: FieldReturnCode, Length: 4, Type: "numerico"},
			{Name: FieldSentState, Length: 2, Type: "numerico"},
		},
	}
}

// testConfig describes a 47 position request and a 21 position response:
//
//	request:  CUENTA(10,num) NOMBRE(8,alnum) occurrence_1{count 3: MONTO(5,num) GLOSA(4,alnum)}
//	response: CODIGO(3,alnum) MOVIMIENTOS{count 2: TIPO(1,alnum) DETALLE{count 2, counter 1: REF(3,alnum)}}
func testConfig() *SchemaConfig {
	return &SchemaConfig{
		ServiceNumber: "3050",
		ServiceName:   "Consulta de movimientos",
		Header:        testHeader(),
		Request: &DialectConfig{
			TotalLength: 47,
			Elements: []ElementConfig{
				{Kind: KindField, Name: "CUENTA", Length: 10, FieldType: "numerico"},
				{Kind: KindField, Name: "NOMBRE", Length: 8, FieldType: "alfanumerico"},
				{Kind: KindOccurrence, Index: 1, Count: 3, CountFieldLength: 2, Fields: []ElementConfig{
					{Kind: KindField, Name: "MONTO", Length: 5, FieldType: "numerico"},
					{Kind: KindField, Name: "GLOSA", Length: 4, FieldType: "alfanumerico"},
				}},
			},
		},
		Response: &DialectConfig{
			TotalLength: 21,
			Elements: []ElementConfig{
				{Kind: KindField, Name: "CODIGO", Length: 3, FieldType: "alfanumerico"},
				{Kind: KindOccurrence, Index: 2, Name: "MOVIMIENTOS", Count: 2, CountFieldLength: 2, Fields: []ElementConfig{
					{Kind: KindField, Name: "TIPO", Length: 1, FieldType: "alfanumerico"},
					{Kind: KindOccurrence, Index: 3, Name: "DETALLE", Count: 2, CountFieldLength: 1, Fields: []ElementConfig{
						{Kind: KindField, Name: "REF", Length: 3, FieldType: "alfanumerico"},
					}},
				}},
			},
		},
	}
}

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Compile(testConfig())
	require.NoError(t, err)
	return s
}

const (
	testRequestLength  = 61
	testResponseLength = 35
)

// testRequestWire is the encoding of testRequestMessage.
var testRequestWire = "000061OT000000" +
	"0000012345" + "ANA     " +
	"01" + "00100PAGO" + "00000    " + "00000    "

func testRequestMessage() *LogicalMessage {
	msg := NewLogicalMessage(SectionRequest)
	msg.Header[FieldChannel] = "OT"
	msg.Data["CUENTA"] = 12345
	msg.Data["NOMBRE"] = "ANA"
	msg.Data["occurrence_1"] = []Record{{"MONTO": "100", "GLOSA": "PAGO"}}
	return msg
}

// testResponseWire is the encoding of testResponseMessage.
var testResponseWire = "000035OT000100" +
	"E01" +
	"01" + "A2R1 R2 " + " 0      "

func testResponseMessage() *LogicalMessage {
	msg := NewLogicalMessage(SectionResponse)
	msg.Header[FieldReturnCode] = "0001"
	msg.Data["CODIGO"] = "E01"
	msg.Data["MOVIMIENTOS"] = []Record{{
		"TIPO":    "A",
		"DETALLE": []Record{{"REF": "R1"}, {"REF": "R2"}},
	}}
	return msg
}

func hasCode(diags []Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func findCode(diags []Diagnostic, code string) (Diagnostic, bool) {
	for _, d := range diags {
		if d.Code == code {
			return d, true
		}
	}
	return Diagnostic{}, false
}

func spaces(n int) string { return strings.Repeat(" ", n) }
func zeros(n int) string  { return strings.Repeat("0", n) }
