package magsci

// PacketFlags holds the single-bit status flags carried in the MAG science
// secondary header: which sensor is designated primary, whether each sensor
// is active, and whether the payload uses the compressed vector codec.
type PacketFlags struct {
	Compressed  bool
	PrimarySens int
	FOBActive   bool
	FIBActive   bool
}

// decodeFlagBit reads a single status bit from cursor and returns it as a bool.
func decodeFlagBit(cursor *BitCursor) (bool, error) {
	return cursor.ReadBit()
}

// decodePacketFlags reads the four one-bit status flags in the order they
// appear in the secondary header: COMPRESSION, FOB_ACT, FIB_ACT, PRI_SENS.
func decodePacketFlags(cursor *BitCursor) (PacketFlags, error) {
	compressed, err := decodeFlagBit(cursor)
	if err != nil {
		return PacketFlags{}, err
	}
	fob, err := decodeFlagBit(cursor)
	if err != nil {
		return PacketFlags{}, err
	}
	fib, err := decodeFlagBit(cursor)
	if err != nil {
		return PacketFlags{}, err
	}
	priSensBit, err := cursor.ReadBit()
	if err != nil {
		return PacketFlags{}, err
	}
	priSens := PrimarySensorIsFOB
	if priSensBit {
		priSens = PrimarySensorIsFIB
	}
	return PacketFlags{
		Compressed:  compressed,
		PrimarySens: priSens,
		FOBActive:   fob,
		FIBActive:   fib,
	}, nil
}

// sensorActivity derives which logical sensor (primary/secondary) is active
// from the PRI_SENS selector and the FOB/FIB activity bits: whichever
// physical sensor PRI_SENS designates as primary contributes its own
// activity bit to primaryActive, and the other sensor's bit to
// secondaryActive.
func sensorActivity(flags PacketFlags) (primaryActive, secondaryActive bool) {
	if flags.PrimarySens == PrimarySensorIsFIB {
		return flags.FIBActive, flags.FOBActive
	}
	return flags.FOBActive, flags.FIBActive
}
