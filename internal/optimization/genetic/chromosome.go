package genetic

import (
	"math/rand"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
)

// chromosome is one candidate plan: a visiting order over item indices
// plus one orientation gene per item. Orientation genes are indexed by
// item index, not sequence position, so they stay attached to their item
// through crossover.
type chromosome struct {
	sequence     []int
	orientations []int

	fitness   float64
	solution  *optimization.Solution
	evaluated bool
}

func (c *chromosome) clone() *chromosome {
	return &chromosome{
		sequence:     append([]int(nil), c.sequence...),
		orientations: append([]int(nil), c.orientations...),
		fitness:      c.fitness,
		solution:     c.solution,
		evaluated:    c.evaluated,
	}
}

func (c *chromosome) invalidate() {
	c.fitness = 0
	c.solution = nil
	c.evaluated = false
}

// randomChromosome draws a random permutation and a random allowed
// orientation for every item.
func randomChromosome(items []optimization.Item, rng *rand.Rand) *chromosome {
	c := &chromosome{
		sequence:     rng.Perm(len(items)),
		orientations: make([]int, len(items)),
	}
	for idx := range items {
		allowed := items[idx].Orientations()
		c.orientations[idx] = allowed[rng.Intn(len(allowed))]
	}
	return c
}

// seedChromosome repairs a seed into a legal individual: the sequence
// becomes a permutation (unknown and duplicate indices dropped, missing
// ones appended) and every orientation gene is clamped to the item's
// allowed set.
func seedChromosome(items []optimization.Item, s Seed) *chromosome {
	n := len(items)
	c := &chromosome{
		sequence:     make([]int, 0, n),
		orientations: make([]int, n),
	}
	seen := make([]bool, n)
	for _, idx := range s.Sequence {
		if idx >= 0 && idx < n && !seen[idx] {
			seen[idx] = true
			c.sequence = append(c.sequence, idx)
		}
	}
	for idx := 0; idx < n; idx++ {
		if !seen[idx] {
			c.sequence = append(c.sequence, idx)
		}
	}
	for idx := 0; idx < n; idx++ {
		gene := 0
		if idx < len(s.Orientations) {
			gene = s.Orientations[idx]
		}
		c.orientations[idx] = legalOrientation(&items[idx], gene)
	}
	return c
}

func legalOrientation(item *optimization.Item, gene int) int {
	allowed := item.Orientations()
	for _, a := range allowed {
		if a == gene {
			return gene
		}
	}
	return allowed[0]
}

// orderCrossover copies a random slice of the first parent's sequence
// verbatim and fills the remaining positions from the second parent in
// order, skipping items already present. Orientation genes cross
// uniformly; both parents carry a legal gene for every item, so the child
// does too.
func orderCrossover(a, b *chromosome, rng *rand.Rand) *chromosome {
	n := len(a.sequence)
	child := &chromosome{
		sequence:     make([]int, n),
		orientations: make([]int, n),
	}
	if n == 0 {
		return child
	}

	cut1 := rng.Intn(n)
	cut2 := rng.Intn(n)
	if cut1 > cut2 {
		cut1, cut2 = cut2, cut1
	}
	present := make([]bool, n)
	for i := cut1; i <= cut2; i++ {
		child.sequence[i] = a.sequence[i]
		present[a.sequence[i]] = true
	}
	dst := (cut2 + 1) % n
	for i := 0; i < n; i++ {
		gene := b.sequence[(cut2+1+i)%n]
		if present[gene] {
			continue
		}
		child.sequence[dst] = gene
		dst = (dst + 1) % n
	}

	for idx := 0; idx < n; idx++ {
		if rng.Intn(2) == 0 {
			child.orientations[idx] = a.orientations[idx]
		} else {
			child.orientations[idx] = b.orientations[idx]
		}
	}
	return child
}

// mutate applies one of two moves with equal probability: swap two
// sequence positions, or redraw one item's orientation from its allowed
// set.
func mutate(c *chromosome, items []optimization.Item, rng *rand.Rand) {
	n := len(c.sequence)
	if n == 0 {
		return
	}
	if rng.Intn(2) == 0 && n > 1 {
		i, j := rng.Intn(n), rng.Intn(n)
		c.sequence[i], c.sequence[j] = c.sequence[j], c.sequence[i]
	} else {
		idx := rng.Intn(n)
		allowed := items[idx].Orientations()
		c.orientations[idx] = allowed[rng.Intn(len(allowed))]
	}
	c.invalidate()
}

// tournament returns the fittest of k random draws from the population.
func tournament(pop []*chromosome, k int, rng *rand.Rand) *chromosome {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < k; i++ {
		if c := pop[rng.Intn(len(pop))]; c.fitness > best.fitness {
			best = c
		}
	}
	return best
}
