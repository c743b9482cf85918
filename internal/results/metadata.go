package results

import "github.com/gomysql/gomysql/internal/wire"

// parseColumnDefinition decodes a Protocol::ColumnDefinition41 packet
// body.
func parseColumnDefinition(payload []byte) (Field, error) {
	pos := 0
	_, _, pos, err := wire.ReadLengthEncodedString(payload, pos) // catalog, always "def"
	if err != nil {
		return Field{}, err
	}
	var f Field
	f.Database, _, pos, err = wire.ReadLengthEncodedString(payload, pos)
	if err != nil {
		return Field{}, err
	}
	f.Table, _, pos, err = wire.ReadLengthEncodedString(payload, pos)
	if err != nil {
		return Field{}, err
	}
	f.OrgTable, _, pos, err = wire.ReadLengthEncodedString(payload, pos)
	if err != nil {
		return Field{}, err
	}
	f.Name, _, pos, err = wire.ReadLengthEncodedString(payload, pos)
	if err != nil {
		return Field{}, err
	}
	f.OrgName, _, pos, err = wire.ReadLengthEncodedString(payload, pos)
	if err != nil {
		return Field{}, err
	}
	_, _, pos, err = wire.ReadLengthEncodedInt(payload, pos) // length of fixed fields, always 0x0c
	if err != nil {
		return Field{}, err
	}
	f.CollationID, pos, err = wire.ReadFixed2(payload, pos)
	if err != nil {
		return Field{}, err
	}
	f.ColumnLength, pos, err = wire.ReadFixed4(payload, pos)
	if err != nil {
		return Field{}, err
	}
	wireType, pos, err := wire.ReadFixed1(payload, pos)
	if err != nil {
		return Field{}, err
	}
	f.WireType = wireType
	flags, pos, err := wire.ReadFixed2(payload, pos)
	if err != nil {
		return Field{}, err
	}
	f.Flags = flags
	decimals, pos, err := wire.ReadFixed1(payload, pos)
	if err != nil {
		return Field{}, err
	}
	f.Decimals = decimals
	_ = pos // 2 filler bytes, and an optional default-value field in COM_FIELD_LIST context, ignored here

	f.Type = wire.ToColumnType(f.WireType, f.Flags, f.CollationID)
	return f, nil
}
