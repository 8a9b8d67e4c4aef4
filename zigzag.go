package magsci

// zigzagEncode maps a signed residual onto the non-negative integers so small
// magnitudes of either sign produce small codes: 0,-1,1,-2,2,... -> 0,1,2,3,4,...
func zigzagEncode(s int32) uint32 {
	return uint32((s >> 31) ^ (s << 1))
}

// zigzagDecode inverts zigzagEncode.
func zigzagDecode(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}
