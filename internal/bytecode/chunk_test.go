package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddConstantReturnsStableIndices(t *testing.T) {
	c := NewChunk("test")
	i0 := c.AddConstant(Const{Kind: ConstInt, Int: 1})
	i1 := c.AddConstant(Const{Kind: ConstInt, Int: 2})
	assert.EqualValues(t, 0, i0)
	assert.EqualValues(t, 1, i1)
	assert.Equal(t, int64(1), c.Constants[i0].Int)
	assert.Equal(t, int64(2), c.Constants[i1].Int)
}

func TestEmitPushConstRoundTripsThroughReadU32(t *testing.T) {
	c := NewChunk("test")
	idx := c.AddConstant(Const{Kind: ConstInt, Int: 42})
	c.EmitPushConst(idx, DebugInfo{Line: 1, Col: 2})

	require.Len(t, c.Code, 5) // 1 opcode byte + 4 operand bytes
	assert.Equal(t, byte(OpPushConst), c.Code[0])
	assert.Equal(t, idx, c.ReadU32(1))
}

func TestHereTracksTheNextInstructionOffset(t *testing.T) {
	c := NewChunk("test")
	assert.Equal(t, 0, c.Here())
	c.EmitRetBig(DebugInfo{})
	assert.Equal(t, 1, c.Here())
	c.EmitCall(2, DebugInfo{})
	assert.Equal(t, 6, c.Here()) // 1 opcode byte + 4-byte argc operand
}

func TestPatchRetSmallTargetOverwritesTheOperandInPlace(t *testing.T) {
	c := NewChunk("test")
	opIP := c.Here()
	c.EmitRetSmall(0, DebugInfo{})

	c.PatchRetSmallTarget(opIP, 0xDEADBEEF&0x7fffffff)
	assert.Equal(t, uint32(0xDEADBEEF&0x7fffffff), c.ReadU32(opIP+1))
}

func TestAddMatchTableAndLambdaReturnStableIndices(t *testing.T) {
	c := NewChunk("test")
	mi := c.AddMatchTable(MatchTable{Arms: []Pattern{{Kind: PatternWildcard}}})
	li := c.AddLambda(LambdaTemplate{Name: "<lambda>"})
	assert.EqualValues(t, 0, mi)
	assert.EqualValues(t, 0, li)
	assert.Len(t, c.Matches[mi].Arms, 1)
	assert.Equal(t, "<lambda>", c.Lambdas[li].Name)
}

func TestGetDebugInfoIsSafeOutOfRange(t *testing.T) {
	c := NewChunk("test")
	assert.Equal(t, DebugInfo{}, c.GetDebugInfo(0))
	assert.Equal(t, DebugInfo{}, c.GetDebugInfo(-1))

	c.EmitRetBig(DebugInfo{Line: 7, Col: 1})
	assert.Equal(t, DebugInfo{Line: 7, Col: 1}, c.GetDebugInfo(0))
}

func TestEmitBinOpCarriesTheKindByteAfterTheOpcode(t *testing.T) {
	c := NewChunk("test")
	c.EmitBinOp(5, DebugInfo{})
	require.Len(t, c.Code, 2)
	assert.Equal(t, byte(OpBinOp), c.Code[0])
	assert.Equal(t, byte(5), c.Code[1])
}
