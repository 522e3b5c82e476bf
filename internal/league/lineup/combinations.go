package lineup

// Combinations gera, em ordem lexicográfica, todos os subconjuntos de k índices
// de 0..n-1. É preguiçoso e reiniciável; não guarda estado entre chamadas de
// Optimize.
type Combinations struct {
	n, k    int
	idx     []int
	started bool
	done    bool
}

// NewCombinations cria o iterador de C(n, k)
func NewCombinations(n, k int) *Combinations {
	return &Combinations{n: n, k: k, idx: make([]int, k)}
}

// Next devolve a próxima combinação ou nil ao final.
// O slice devolvido é reutilizado na chamada seguinte.
func (c *Combinations) Next() []int {
	if c.done {
		return nil
	}
	if !c.started {
		c.started = true
		if c.k < 0 || c.k > c.n {
			c.done = true
			return nil
		}
		for i := range c.idx {
			c.idx[i] = i
		}
		return c.idx
	}

	i := c.k - 1
	for i >= 0 && c.idx[i] == c.n-c.k+i {
		i--
	}
	if i < 0 {
		c.done = true
		return nil
	}
	c.idx[i]++
	for j := i + 1; j < c.k; j++ {
		c.idx[j] = c.idx[j-1] + 1
	}
	return c.idx
}

// Reset volta o iterador para a primeira combinação
func (c *Combinations) Reset() {
	c.started = false
	c.done = false
}

// Binomial devolve C(n, k)
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}
