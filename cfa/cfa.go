// Package cfa slices a method's linear instruction stream into basic
// blocks: per-instruction entries/exits, leader identification, and the
// folding of the method's try-table into per-block handler references.
package cfa

import (
	"fmt"
	"sort"

	"github.com/maekoos/dex-ir/decode"
	"github.com/maekoos/dex-ir/dexfile"
	"github.com/maekoos/dex-ir/internal/dexlog"
)

// BasicBlock is a maximal single-entry run of instructions. Entries and
// exits are block ids after Analyse returns (instruction indices are an
// intermediate representation only). The block id doubles as the index of
// the block's leader instruction.
type BasicBlock struct {
	Entries []int
	Exits   []int
	Body    []decode.Instruction

	// IsHandler marks the target block of a try-handler.
	IsHandler bool

	// Handler indexes into the handler-table slice returned alongside the
	// blocks, set when the block's leader lies inside a try-range.
	Handler *int
}

// HandlerTable maps an exception type descriptor to the block id its
// handler starts at.
type HandlerTable map[string]int

// handlerRange is a try-range translated from word addresses to
// instruction indices: [start, end) plus its folded handler table.
type handlerRange struct {
	start, end int
	table      HandlerTable
}

// Analyse computes the block map and the handler tables for one method.
// Block ids are leader instruction indices, so handler targets (which are
// themselves leaders) need no extra translation.
func Analyse(insns []decode.Instruction, tries []dexfile.Try) (map[int]*BasicBlock, []HandlerTable, error) {
	ranges, err := foldTries(insns, tries)
	if err != nil {
		return nil, nil, err
	}

	allExits := make([][]int, len(insns))
	entries := make([][]int, len(insns))
	for i := range insns {
		ex, err := exits(i, insns)
		if err != nil {
			return nil, nil, err
		}
		allExits[i] = ex
	}

	// Back-link: every exit of i is an entry of its target.
	for i, ex := range allExits {
		for _, t := range ex {
			if t >= len(insns) {
				dexlog.Warn("an instruction is referencing a non-existing instruction")
				continue
			}
			entries[t] = append(entries[t], i)
		}
	}

	return intoBlocks(insns, entries, allExits, ranges)
}

// foldTries translates each try's word addresses into instruction indices
// and its handlers into (type → target index) tables.
func foldTries(insns []decode.Instruction, tries []dexfile.Try) ([]handlerRange, error) {
	var ranges []handlerRange

	currentAddress := uint32(0)
	for i, ins := range insns {
		for _, t := range tries {
			if t.StartAddr != currentAddress {
				continue
			}

			// The try's length is in words; walk forward translating it
			// into an instruction count.
			insnCount := 0
			wordCount := uint16(0)
			for wordCount < t.InsnCount {
				if i+insnCount >= len(insns) {
					return nil, fmt.Errorf("try at address %d runs past the end of the method", t.StartAddr)
				}
				wordCount += uint16(insns[i+insnCount].Words())
				insnCount++
			}

			table := make(HandlerTable, len(t.Handlers))
			for _, h := range t.Handlers {
				idx, err := indexOfAddress(insns, h.Addr)
				if err != nil {
					return nil, err
				}
				table[h.TypeName] = idx
			}
			ranges = append(ranges, handlerRange{start: i, end: i + insnCount, table: table})

			dexlog.Debugf("try %d -> %d (%d instructions)", i, i+insnCount, insnCount)
		}
		currentAddress += uint32(ins.Words())
	}

	return ranges, nil
}

// indexOfAddress walks the instruction list from the top, translating a
// word address into an instruction index.
func indexOfAddress(insns []decode.Instruction, addr uint32) (int, error) {
	wordCount := uint32(0)
	idx := 0
	for wordCount < addr {
		if idx >= len(insns) {
			return 0, fmt.Errorf("handler address %d runs past the end of the method", addr)
		}
		wordCount += uint32(insns[idx].Words())
		idx++
	}
	return idx, nil
}

// exits computes where control can flow after the instruction at idx.
func exits(idx int, insns []decode.Instruction) ([]int, error) {
	ins := insns[idx]
	switch ins.Op {
	case decode.OpIfEq, decode.OpIfNe, decode.OpIfLt, decode.OpIfGe, decode.OpIfGt, decode.OpIfLe:
		target, err := addOffset(int(int16(uint16(ins.C))), idx, insns)
		if err != nil {
			return nil, err
		}
		return []int{idx + 1, target}, nil
	case decode.OpIfEqz, decode.OpIfNez, decode.OpIfLtz, decode.OpIfGez, decode.OpIfGtz, decode.OpIfLez:
		target, err := addOffset(int(int16(uint16(ins.B))), idx, insns)
		if err != nil {
			return nil, err
		}
		return []int{idx + 1, target}, nil
	case decode.OpGoto:
		target, err := addOffset(int(int8(uint8(ins.A))), idx, insns)
		if err != nil {
			return nil, err
		}
		return []int{target}, nil
	case decode.OpGoto16:
		target, err := addOffset(int(int16(uint16(ins.A))), idx, insns)
		if err != nil {
			return nil, err
		}
		return []int{target}, nil
	case decode.OpGoto32:
		target, err := addOffset(int(int32(ins.A)), idx, insns)
		if err != nil {
			return nil, err
		}
		return []int{target}, nil
	case decode.OpReturnVoid, decode.OpReturn, decode.OpReturnWide, decode.OpReturnObject, decode.OpThrow:
		return nil, nil
	default:
		return []int{idx + 1}, nil
	}
}

// addOffset translates a signed word offset relative to the instruction
// at idx into an instruction index, walking the list in either direction.
func addOffset(wordOffset, idx int, insns []decode.Instruction) (int, error) {
	if wordOffset == 0 {
		return 0, fmt.Errorf("branch with zero word offset at instruction %d", idx)
	}

	if wordOffset < 0 {
		// Walking backward: the offset does not include the branch itself
		// but does include the target.
		wCount := 0
		iCount := 0
		for wCount < -wordOffset {
			if idx-iCount-1 < 0 {
				return 0, fmt.Errorf("branch target before the start of the method (offset %d at %d)", wordOffset, idx)
			}
			wCount += insns[idx-iCount-1].Words()
			iCount++
		}
		if wCount != -wordOffset {
			return 0, fmt.Errorf("branch offset %d at %d does not land on an instruction boundary", wordOffset, idx)
		}
		return idx - iCount, nil
	}

	// Walking forward: the offset includes the branch itself but not the
	// target.
	wCount := 0
	iCount := 0
	for wCount < wordOffset {
		if idx+iCount >= len(insns) {
			return 0, fmt.Errorf("branch target past the end of the method (offset %d at %d)", wordOffset, idx)
		}
		wCount += insns[idx+iCount].Words()
		iCount++
	}
	if wCount != wordOffset {
		return 0, fmt.Errorf("branch offset %d at %d does not land on an instruction boundary", wordOffset, idx)
	}
	return idx + iCount, nil
}

// intoBlocks partitions the instruction list into basic blocks.
// https://en.wikipedia.org/wiki/Basic_block#Creation_algorithm
func intoBlocks(insns []decode.Instruction, entries, allExits [][]int, ranges []handlerRange) (map[int]*BasicBlock, []HandlerTable, error) {
	blocks := make(map[int]*BasicBlock)
	tables := make([]HandlerTable, len(ranges))
	for i, r := range ranges {
		tables[i] = r.table
	}

	handlerIndices := make(map[int]bool)
	for _, r := range ranges {
		for _, target := range r.table {
			handlerIndices[target] = true
		}
	}

	// rangeOf finds the handler-table index whose try-range covers a
	// block leader. Two covering ranges is a structural error.
	rangeOf := func(leader int) (*int, error) {
		var found *int
		for ri, r := range ranges {
			if leader >= r.start && leader < r.end {
				if found != nil {
					return nil, fmt.Errorf("overlapping try ranges at instruction %d", leader)
				}
				ri := ri
				found = &ri
			}
		}
		return found, nil
	}

	// Map each block's last instruction index to its block id so raw
	// entry indices can be translated afterwards. Mid-block entries are
	// impossible by construction: any branch source terminates its block.
	blockEntries := make(map[int]int)

	curBlock := &BasicBlock{}
	curBlockID := 0
	lastWasJump := false
	for i := range insns {
		isTryStart := false
		for _, r := range ranges {
			if r.start == i {
				isTryStart = true
			}
		}
		isHandlerStart := handlerIndices[i]

		linearEntry := len(entries[i]) == 1 && entries[i][0] == i-1
		if i != 0 && (!linearEntry && len(entries[i]) != 0 || lastWasJump || isHandlerStart || isTryStart) {
			lastWasJump = false

			blockEntries[i-1] = curBlockID
			blocks[curBlockID] = curBlock

			curBlock = &BasicBlock{Entries: append([]int(nil), entries[i]...), IsHandler: isHandlerStart}
			curBlockID = i

			h, err := rangeOf(i)
			if err != nil {
				return nil, nil, err
			}
			curBlock.Handler = h
		} else if i == 0 {
			curBlock.Entries = append([]int(nil), entries[i]...)
			curBlock.IsHandler = isHandlerStart
			h, err := rangeOf(i)
			if err != nil {
				return nil, nil, err
			}
			curBlock.Handler = h
		}

		curBlock.Body = append(curBlock.Body, insns[i])
		curBlock.Exits = append([]int(nil), allExits[i]...)

		if !(len(allExits[i]) == 1 && allExits[i][0] == i+1) {
			lastWasJump = true
		}
	}
	blockEntries[len(insns)-1] = curBlockID
	blocks[curBlockID] = curBlock

	// Translate raw entry indices into block ids.
	for id, block := range blocks {
		translated := make([]int, 0, len(block.Entries))
		for _, e := range block.Entries {
			bid, ok := blockEntries[e]
			if !ok {
				return nil, nil, fmt.Errorf("block %d: entry %d is not the last instruction of any block", id, e)
			}
			translated = append(translated, bid)
		}
		block.Entries = translated
	}

	return blocks, tables, nil
}

// SortedIDs returns the block ids in ascending order, the order the IR
// builder walks them in.
func SortedIDs(blocks map[int]*BasicBlock) []int {
	ids := make([]int, 0, len(blocks))
	for id := range blocks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
