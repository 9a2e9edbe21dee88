package iso8583

import "sync"

// DefaultProvider names the built-in FISC layout.
const DefaultProvider = "FISC"

var (
	defaultOnce  sync.Once
	defaultTable *FieldTable
)

// DefaultTable returns the built-in FISC field layout. The table is built
// once and shared; a registry source registered under the same provider name
// overrides it for callers that go through the registry.
func DefaultTable() *FieldTable {
	defaultOnce.Do(func() {
		t, err := NewFieldTable(DefaultProvider, defaultFISCDefs)
		if err != nil {
			// The built-in definitions are compile-time constants; a
			// validation failure here is a programming error.
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// defaultFISCDefs is the FISC-flavored layout: BCD-packed numerics with BCD
// length prefixes, ASCII for alphanumeric fields.
var defaultFISCDefs = []*FieldDef{
	{Number: 2, Name: "PAN", Description: "Primary account number", Type: TypeNumeric, LengthType: LLVar, Length: 19, DataEncoding: BCD, LengthEncoding: BCD, Sensitive: true},
	{Number: 3, Name: "PROCESSING_CODE", Description: "Processing code", Type: TypeNumeric, LengthType: Fixed, Length: 6, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 4, Name: "AMOUNT", Description: "Amount, transaction", Type: TypeNumeric, LengthType: Fixed, Length: 12, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 7, Name: "TRANSMISSION_DATETIME", Description: "Transmission date and time MMDDhhmmss", Type: TypeNumeric, LengthType: Fixed, Length: 10, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 11, Name: "STAN", Description: "System trace audit number", Type: TypeNumeric, LengthType: Fixed, Length: 6, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 12, Name: "LOCAL_TIME", Description: "Time, local transaction hhmmss", Type: TypeNumeric, LengthType: Fixed, Length: 6, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 13, Name: "LOCAL_DATE", Description: "Date, local transaction MMDD", Type: TypeNumeric, LengthType: Fixed, Length: 4, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 14, Name: "EXPIRY_DATE", Description: "Date, expiration YYMM", Type: TypeNumeric, LengthType: Fixed, Length: 4, DataEncoding: BCD, LengthEncoding: BCD, Sensitive: true},
	{Number: 15, Name: "SETTLEMENT_DATE", Description: "Date, settlement MMDD", Type: TypeNumeric, LengthType: Fixed, Length: 4, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 18, Name: "MERCHANT_TYPE", Description: "Merchant category code", Type: TypeNumeric, LengthType: Fixed, Length: 4, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 22, Name: "POS_ENTRY_MODE", Description: "Point of service entry mode", Type: TypeNumeric, LengthType: Fixed, Length: 3, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 25, Name: "POS_CONDITION", Description: "Point of service condition code", Type: TypeNumeric, LengthType: Fixed, Length: 2, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 32, Name: "ACQUIRER_ID", Description: "Acquiring institution identification", Type: TypeNumeric, LengthType: LLVar, Length: 11, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 33, Name: "FORWARDER_ID", Description: "Forwarding institution identification", Type: TypeNumeric, LengthType: LLVar, Length: 11, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 35, Name: "TRACK2", Description: "Track 2 data", Type: TypeTrack2, LengthType: LLVar, Length: 37, DataEncoding: ASCII, LengthEncoding: BCD, Sensitive: true},
	{Number: 37, Name: "RRN", Description: "Retrieval reference number", Type: TypeAlphaNumeric, LengthType: Fixed, Length: 12, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 38, Name: "AUTH_CODE", Description: "Authorization identification response", Type: TypeAlphaNumeric, LengthType: Fixed, Length: 6, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 39, Name: "RESPONSE_CODE", Description: "Response code", Type: TypeAlphaNumeric, LengthType: Fixed, Length: 2, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 41, Name: "TERMINAL_ID", Description: "Card acceptor terminal identification", Type: TypeAlphaNumericSpecial, LengthType: Fixed, Length: 8, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 42, Name: "MERCHANT_ID", Description: "Card acceptor identification", Type: TypeAlphaNumericSpecial, LengthType: Fixed, Length: 15, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 43, Name: "MERCHANT_NAME", Description: "Card acceptor name and location", Type: TypeAlphaNumericSpecial, LengthType: Fixed, Length: 40, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 44, Name: "ADDITIONAL_RESPONSE", Description: "Additional response data", Type: TypeAlphaNumericSpecial, LengthType: LLVar, Length: 25, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 48, Name: "ADDITIONAL_DATA", Description: "Additional data, private", Type: TypeAlphaNumericSpecial, LengthType: LLLVar, Length: 999, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 49, Name: "CURRENCY_CODE", Description: "Currency code, transaction", Type: TypeNumeric, LengthType: Fixed, Length: 3, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 52, Name: "PIN_DATA", Description: "PIN block", Type: TypeBinary, LengthType: Fixed, Length: 8, DataEncoding: Binary, LengthEncoding: BCD, Sensitive: true},
	{Number: 53, Name: "SECURITY_INFO", Description: "Security related control information", Type: TypeNumeric, LengthType: Fixed, Length: 16, DataEncoding: BCD, LengthEncoding: BCD, Sensitive: true},
	{Number: 55, Name: "ICC_DATA", Description: "Integrated circuit card data", Type: TypeBinary, LengthType: LLLVar, Length: 255, DataEncoding: Binary, LengthEncoding: BCD},
	{Number: 62, Name: "PRIVATE_1", Description: "Reserved private", Type: TypeAlphaNumericSpecial, LengthType: LLLVar, Length: 999, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 63, Name: "PRIVATE_2", Description: "Reserved private", Type: TypeAlphaNumericSpecial, LengthType: LLLVar, Length: 999, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 70, Name: "NETWORK_MGMT_CODE", Description: "Network management information code", Type: TypeNumeric, LengthType: Fixed, Length: 3, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 90, Name: "ORIGINAL_DATA", Description: "Original data elements", Type: TypeNumeric, LengthType: Fixed, Length: 42, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 95, Name: "REPLACEMENT_AMOUNTS", Description: "Replacement amounts", Type: TypeAlphaNumericSpecial, LengthType: Fixed, Length: 42, DataEncoding: ASCII, LengthEncoding: BCD},
	{Number: 100, Name: "RECEIVER_ID", Description: "Receiving institution identification", Type: TypeNumeric, LengthType: LLVar, Length: 11, DataEncoding: BCD, LengthEncoding: BCD},
	{Number: 102, Name: "ACCOUNT_1", Description: "Account identification 1", Type: TypeAlphaNumericSpecial, LengthType: LLVar, Length: 28, DataEncoding: ASCII, LengthEncoding: BCD, Sensitive: true},
	{Number: 103, Name: "ACCOUNT_2", Description: "Account identification 2", Type: TypeAlphaNumericSpecial, LengthType: LLVar, Length: 28, DataEncoding: ASCII, LengthEncoding: BCD, Sensitive: true},
	{Number: 128, Name: "MAC", Description: "Message authentication code", Type: TypeBinary, LengthType: Fixed, Length: 8, DataEncoding: Binary, LengthEncoding: BCD},
}
