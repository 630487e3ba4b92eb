package format

type (
	ValueType       uint8
	CompressionType uint8
)

const (
	TypeObject ValueType = 0x1 // TypeObject represents a JSON object.
	TypeArray  ValueType = 0x2 // TypeArray represents a JSON array.
	TypeString ValueType = 0x3 // TypeString represents a JSON string.
	TypeNumber ValueType = 0x4 // TypeNumber represents a JSON number.
	TypeBool   ValueType = 0x5 // TypeBool represents a JSON true or false literal.
	TypeNull   ValueType = 0x6 // TypeNull represents the JSON null literal.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (v ValueType) String() string {
	switch v {
	case TypeObject:
		return "Object"
	case TypeArray:
		return "Array"
	case TypeString:
		return "String"
	case TypeNumber:
		return "Number"
	case TypeBool:
		return "Bool"
	case TypeNull:
		return "Null"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
