package decl

// Builtin sort names. These are pre-registered in every scope; their
// realization commands are discarded because the engine knows them
// natively.
const (
	SortInt    = "i64"
	SortFloat  = "f64"
	SortString = "String"
	SortBool   = "Bool"
	SortUnit   = "Unit"
)

// NeMethod is the local method name of the polymorphic inequality
// relation. Its engine name "!=" is shared across sorts.
const NeMethod = "ne"

// InitMethod is the classmethod name under which a sort's constructor is
// registered.
const InitMethod = "new"

func registerBuiltins(d *Declarations) {
	for _, name := range []string{SortInt, SortFloat, SortString, SortBool, SortUnit} {
		mustRegister(d.RegisterSort(name, 0, ""))
	}

	unit := JustTypeRef{Name: SortUnit}
	for _, name := range []string{SortInt, SortFloat, SortString, SortBool, SortUnit} {
		self := JustTypeRef{Name: name}
		_, err := d.registerCallable(
			MethodRef{Sort: name, Name: NeMethod},
			&FunctionDecl{ReturnType: unit, ArgTypes: []TypeRef{self, self}},
			"!=",
			true,
		)
		if err != nil {
			panic(err)
		}
	}

	i64 := JustTypeRef{Name: SortInt}
	for method, engine := range map[string]string{
		"add": "+", "sub": "-", "mul": "*",
	} {
		mustRegister(d.RegisterCallable(
			MethodRef{Sort: SortInt, Name: method},
			&FunctionDecl{ReturnType: i64, ArgTypes: []TypeRef{i64, i64}},
			engine,
		))
	}
	for method, engine := range map[string]string{
		"lt": "<", "gt": ">", "le": "<=", "ge": ">=",
	} {
		mustRegister(d.RegisterCallable(
			MethodRef{Sort: SortInt, Name: method},
			&FunctionDecl{ReturnType: unit, ArgTypes: []TypeRef{i64, i64}},
			engine,
		))
	}
	for _, method := range []string{"min", "max"} {
		mustRegister(d.RegisterCallable(
			MethodRef{Sort: SortInt, Name: method},
			&FunctionDecl{ReturnType: i64, ArgTypes: []TypeRef{i64, i64}},
			method,
		))
	}
}

func mustRegister(_ []Command, err error) {
	if err != nil {
		panic(err)
	}
}
