package iso8583

import "time"

// Field indices used throughout the gateway and the inbound server.
const (
	FieldPAN              = 2
	FieldProcessingCode   = 3
	FieldAmount           = 4
	FieldTransmissionTime = 7
	FieldTrace            = 11
	FieldLocalTime        = 12
	FieldLocalDate        = 13
	FieldInstitutionID    = 32
	FieldTrack2           = 35
	FieldRetrievalRef     = 37
	FieldAuthCode         = 38
	FieldResponseCode     = 39
	FieldTerminalID       = 41
	FieldMerchantID       = 42
	FieldAdditionalData   = 48
	FieldPINData          = 52
	FieldNetMgmtCode      = 70
	FieldMAC              = 128
)

// Network management information codes carried in field 70 of 0800 messages.
const (
	NetMgmtSignOn      = "001"
	NetMgmtSignOff     = "002"
	NetMgmtKeyExchange = "101"
	NetMgmtEcho        = "301"
)

// Response codes carried in field 39.
const (
	RespApproved           = "00"
	RespDoNotHonor         = "05"
	RespInvalidTransaction = "12"
	RespInvalidCard        = "14"
	RespInsufficientFunds  = "51"
	RespExpiredCard        = "54"
	RespIncorrectPIN       = "55"
	RespNotAllowed         = "57"
	RespLateResponse       = "68"
	RespIssuerUnavailable  = "91"
	RespSystemMalfunction  = "96"
)

// TransmissionTimestamp formats t as the MMDDhhmmss value of field 7.
func TransmissionTimestamp(t time.Time) string {
	return t.Format("0102150405")
}

// NewNetworkRequest builds an 0800 carrying the given management code in
// field 70 and the current transmission timestamp in field 7. The caller
// (normally the supervisor) assigns field 11.
func NewNetworkRequest(code string) *Message {
	m := NewMessage(MTINetworkRequest)
	m.SetField(FieldTransmissionTime, TransmissionTimestamp(time.Now()))
	m.SetField(FieldNetMgmtCode, code)
	return m
}

// NewEchoRequest builds the 0800/301 echo test message.
func NewEchoRequest() *Message {
	return NewNetworkRequest(NetMgmtEcho)
}
