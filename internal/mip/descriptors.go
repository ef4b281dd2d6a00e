package mip

// Descriptor sets. Command sets occupy the low half of the byte range;
// data sets have the high bit set.
const (
	SetBaseCommand byte = 0x01
	Set3DMCommand  byte = 0x0C
	SetEFCommand   byte = 0x0D

	SetIMUData  byte = 0x80
	SetGNSSData byte = 0x81
	SetEFData   byte = 0x82
)

// 3DM command field descriptors.
const (
	CmdIMUBaseRate  byte = 0x06
	CmdGNSSBaseRate byte = 0x07
	CmdIMUFormat    byte = 0x08
	CmdGNSSFormat   byte = 0x09
	CmdEFFormat     byte = 0x0A
	CmdStreamState  byte = 0x11
)

// Estimation filter command field descriptors.
const (
	CmdEFControl byte = 0x19
	CmdEFReset   byte = 0x0D
)

// Reply field descriptors.
const (
	FieldAck          byte = 0xF1
	FieldIMUBaseRate  byte = 0x83
	FieldGNSSBaseRate byte = 0x84
)

// IsDataSet reports whether the descriptor set identifies a streamed data
// packet rather than a command reply.
func IsDataSet(desc byte) bool {
	return desc&0x80 != 0
}
