package testdata

// TestVector contains known KDF inputs for determinism testing.
type TestVector struct {
	Name       string
	Passphrase string
	Salt       string // Hex
	Algorithm  string
	Iterations int
	N, R, P    int
}

// Vectors contains derivation inputs covering both algorithms.
var Vectors = []TestVector{
	{
		Name:       "pbkdf2 ascii passphrase",
		Passphrase: "correct-horse-battery-staple",
		Salt:       "7465737473616c743132333435363738", // 16 bytes
		Algorithm:  "pbkdf2",
		Iterations: 100000,
	},
	{
		Name:       "pbkdf2 unicode passphrase",
		Passphrase: "пароль-сложный-123",
		Salt:       "616e6f746865722d73616c742d3030",
		Algorithm:  "pbkdf2",
		Iterations: 100000,
	},
	{
		Name:       "pbkdf2 minimum iterations",
		Passphrase: "legacy vault passphrase",
		Salt:       "6c656761637973616c7431323334",
		Algorithm:  "pbkdf2",
		Iterations: 10000,
	},
	{
		Name:       "scrypt default cost",
		Passphrase: "hunter2 but longer",
		Salt:       "73637279707473616c7430303030",
		Algorithm:  "scrypt",
		N:          32768,
		R:          8,
		P:          1,
	},
	{
		Name:       "scrypt minimum cost",
		Passphrase: "another passphrase",
		Salt:       "6d696e696d616c2d73616c742d31",
		Algorithm:  "scrypt",
		N:          4096,
		R:          8,
		P:          1,
	},
}
