package alloc

// noBlock terminates a free chain and marks an unused arena node.
const noBlock int32 = -1

// freeBlock is the header of a free block: its position and the next block in the
// same bucket. It lives in the bucket table's arena, never in the block itself.
type freeBlock struct {
	off  int32 // page-relative offset
	desc int32 // owning descriptor slot, noBlock while the node is unused
	next int32 // next node in the chain, noBlock at the tail
}

// bucketTable holds one singly-linked free chain per size class.
// Chains are threaded through an index arena; released nodes go on a spare stack.
type bucketTable struct {
	heads  []int32 // per rank, noBlock when empty
	counts []int
	nodes  []freeBlock
	spare  []int32
}

func newBucketTable(numClasses int) *bucketTable {
	bt := &bucketTable{
		heads:  make([]int32, numClasses),
		counts: make([]int, numClasses),
		nodes:  make([]freeBlock, 0, 64),
	}
	for r := range bt.heads {
		bt.heads[r] = noBlock
	}
	return bt
}

// push prepends the block at (desc, off) to the rank chain. O(1).
func (bt *bucketTable) push(rank int, desc int32, off int) {
	var idx int32
	if n := len(bt.spare); n > 0 {
		idx = bt.spare[n-1]
		bt.spare = bt.spare[:n-1]
	} else {
		idx = int32(len(bt.nodes))
		bt.nodes = append(bt.nodes, freeBlock{})
	}
	bt.nodes[idx] = freeBlock{off: int32(off), desc: desc, next: bt.heads[rank]}
	bt.heads[rank] = idx
	bt.counts[rank]++
}

// pop removes and returns the head of the rank chain. O(1).
func (bt *bucketTable) pop(rank int) (freeBlock, bool) {
	idx := bt.heads[rank]
	if idx == noBlock {
		return freeBlock{}, false
	}
	blk := bt.nodes[idx]
	bt.heads[rank] = blk.next
	bt.counts[rank]--
	bt.recycle(idx)
	return blk, true
}

// remove unlinks the block at (desc, off) from the rank chain. O(chain length).
func (bt *bucketTable) remove(rank int, desc int32, off int) bool {
	prev := noBlock
	for idx := bt.heads[rank]; idx != noBlock; idx = bt.nodes[idx].next {
		n := bt.nodes[idx]
		if n.desc == desc && int(n.off) == off {
			if prev == noBlock {
				bt.heads[rank] = n.next
			} else {
				bt.nodes[prev].next = n.next
			}
			bt.counts[rank]--
			bt.recycle(idx)
			return true
		}
		prev = idx
	}
	return false
}

// count returns the number of free blocks of rank.
func (bt *bucketTable) count(rank int) int { return bt.counts[rank] }

// each calls fn for every free block of rank, head first.
func (bt *bucketTable) each(rank int, fn func(blk freeBlock)) {
	for idx := bt.heads[rank]; idx != noBlock; idx = bt.nodes[idx].next {
		fn(bt.nodes[idx])
	}
}

func (bt *bucketTable) recycle(idx int32) {
	bt.nodes[idx] = freeBlock{off: 0, desc: noBlock, next: noBlock}
	bt.spare = append(bt.spare, idx)
}
