package iso8583

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_FieldAccess(t *testing.T) {
	t.Parallel()

	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldTrace, "000123")
	m.SetField(FieldResponseCode, "00")

	v, ok := m.Field(FieldTrace)
	assert.True(t, ok)
	assert.Equal(t, "000123", v)

	_, ok = m.Field(FieldPAN)
	assert.False(t, ok)

	assert.Equal(t, "000123", m.FieldOr(FieldTrace, "x"))
	assert.Equal(t, "x", m.FieldOr(FieldPAN, "x"))
	assert.True(t, m.Has(FieldTrace))
	assert.False(t, m.Has(FieldPAN))
	assert.Equal(t, 2, m.Len())

	m.ClearField(FieldTrace)
	assert.False(t, m.Has(FieldTrace))
	assert.Equal(t, 1, m.Len())
}

func TestMessage_FieldsSorted(t *testing.T) {
	t.Parallel()

	m := NewMessage(MTINetworkRequest)
	m.SetField(70, "301")
	m.SetField(7, "0825120000")
	m.SetField(11, "000001")

	assert.Equal(t, []int{7, 11, 70}, m.Fields())
}

func TestMessage_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := NewMessage(MTIFinancialRequest)
	orig.SetField(FieldTrace, "000001")

	cp := orig.Clone()
	cp.SetMTI(MTIFinancialResponse)
	cp.SetField(FieldTrace, "999999")
	cp.SetField(FieldResponseCode, "00")

	assert.Equal(t, MTIFinancialRequest, orig.MTI())
	assert.Equal(t, "000001", orig.FieldOr(FieldTrace, ""))
	assert.False(t, orig.Has(FieldResponseCode))
	assert.Equal(t, "999999", cp.FieldOr(FieldTrace, ""))
}

func TestMessage_EchoFrom(t *testing.T) {
	t.Parallel()

	req := NewMessage(MTIFinancialRequest)
	req.SetField(FieldPAN, "4000123412341234")
	req.SetField(FieldTrace, "000777")
	req.SetField(FieldAmount, "000000010000")

	reply := NewMessage(MTIFinancialResponse)
	reply.SetField(FieldAmount, "000000009900")

	reply.EchoFrom(req, FieldPAN, FieldTrace, FieldAmount, FieldTerminalID)

	assert.Equal(t, "4000123412341234", reply.FieldOr(FieldPAN, ""))
	assert.Equal(t, "000777", reply.FieldOr(FieldTrace, ""))
	assert.Equal(t, "000000009900", reply.FieldOr(FieldAmount, ""), "existing values win over the echo")
	assert.False(t, reply.Has(FieldTerminalID), "fields absent from the source stay absent")
}

func TestMessage_BitmapDerivation(t *testing.T) {
	t.Parallel()

	m := NewMessage(MTINetworkRequest)
	m.SetField(7, "0825120000")
	m.SetField(11, "000001")
	m.SetField(70, "001")

	b := m.Bitmap()
	assert.Equal(t, []int{7, 11, 70}, b.Fields())
	assert.True(t, b.Secondary())
}

func TestMessage_StringNeverShowsValues(t *testing.T) {
	t.Parallel()

	m := NewMessage(MTIFinancialRequest)
	m.SetField(FieldPAN, "4000123412341234")
	m.SetField(FieldTrace, "000001")

	s := m.String()
	assert.Contains(t, s, "MTI 0200")
	assert.Contains(t, s, "2 11")
	assert.NotContains(t, s, "4000123412341234")

	empty := NewMessage(MTINetworkRequest)
	assert.Contains(t, empty.String(), "[]")
}

func TestResponseMTI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		req  string
		want string
	}{
		{MTIFinancialRequest, MTIFinancialResponse},
		{MTIReversalRequest, MTIReversalResponse},
		{MTINetworkRequest, MTINetworkResponse},
		{"0100", "0110"},
	}
	for _, tt := range tests {
		got, err := ResponseMTI(tt.req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ResponseMTI("02")
	assert.Error(t, err)
	_, err = ResponseMTI("02x0")
	assert.Error(t, err)
	_, err = ResponseMTI("9999")
	assert.Error(t, err)
}

func TestMTIClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, IsResponseMTI(MTIFinancialResponse))
	assert.True(t, IsResponseMTI(MTINetworkResponse))
	assert.False(t, IsResponseMTI(MTIFinancialRequest))
	assert.False(t, IsResponseMTI("021"))

	assert.True(t, IsNetworkMTI(MTINetworkRequest))
	assert.True(t, IsNetworkMTI(MTINetworkResponse))
	assert.False(t, IsNetworkMTI(MTIFinancialRequest))
}

func TestNewNetworkRequest(t *testing.T) {
	t.Parallel()

	m := NewNetworkRequest(NetMgmtSignOn)
	assert.Equal(t, MTINetworkRequest, m.MTI())
	assert.Equal(t, NetMgmtSignOn, m.FieldOr(FieldNetMgmtCode, ""))
	assert.Len(t, m.FieldOr(FieldTransmissionTime, ""), 10)
	assert.False(t, m.Has(FieldTrace), "the sender assigns the trace")

	echo := NewEchoRequest()
	assert.Equal(t, NetMgmtEcho, echo.FieldOr(FieldNetMgmtCode, ""))
}
