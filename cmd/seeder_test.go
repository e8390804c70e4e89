package cmd

import (
	"context"
	"path/filepath"

	"github.com/frahmantamala/employee-directory/internal"
	authPostgres "github.com/frahmantamala/employee-directory/internal/auth/postgres"
	"github.com/frahmantamala/employee-directory/internal/database"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("migrate and seed", func() {
	var (
		ctx context.Context
		db  *database.DB
		dir string
	)

	count := func(query string, args ...any) int {
		var n int
		Expect(db.SQL.GetContext(ctx, &n, db.SQL.Rebind(query), args...)).To(Succeed())
		return n
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = filepath.Join("..", "db", "migrations", database.DriverSQLite)

		var err error
		db, err = database.Open(internal.DatabaseConfig{
			Driver:       database.DriverSQLite,
			Source:       filepath.Join(GinkgoT().TempDir(), "directory.db"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(migrate(ctx, db, dir, false)).To(Succeed())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	It("creates the schema with the three roles", func() {
		Expect(count(`SELECT COUNT(*) FROM role`)).To(Equal(3))
		Expect(count(`SELECT COUNT(*) FROM role WHERE id = 2 AND name = 'department-manager'`)).To(Equal(1))
		Expect(count(`SELECT COUNT(*) FROM "user"`)).To(Equal(0))
	})

	It("rejects rows that break the status and salary checks", func() {
		_, err := db.SQL.ExecContext(ctx, `INSERT INTO department (name, status) VALUES ('Ops', 'archived')`)
		Expect(err).To(HaveOccurred())

		_, err = db.SQL.ExecContext(ctx, `INSERT INTO "user" (username, password) VALUES ('x', 'x')`)
		Expect(err).NotTo(HaveOccurred())
		_, err = db.SQL.ExecContext(ctx, `INSERT INTO employee (user_id, name, salary) VALUES (1, 'X', -1)`)
		Expect(err).To(HaveOccurred())
	})

	It("seeds the administrator once and grants the admin role", func() {
		Expect(seed(ctx, db, bcrypt.MinCost, false)).To(Succeed())
		Expect(seed(ctx, db, bcrypt.MinCost, false)).To(Succeed())

		Expect(count(`SELECT COUNT(*) FROM "user" WHERE username = ?`, seedAdminUsername)).To(Equal(1))
		Expect(count(`SELECT COUNT(*) FROM "user" WHERE email = ?`, seedAdminEmail)).To(Equal(1))
		Expect(count(`SELECT COUNT(*) FROM role`)).To(Equal(3))
		Expect(count(`SELECT COUNT(*) FROM department`)).To(Equal(0))

		var hash string
		Expect(db.SQL.GetContext(ctx, &hash, `SELECT password FROM "user" WHERE username = ?`, seedAdminUsername)).To(Succeed())
		Expect(bcrypt.CompareHashAndPassword([]byte(hash), []byte(seedAdminPassword))).To(Succeed())

		var id int64
		Expect(db.SQL.GetContext(ctx, &id, `SELECT id FROM "user" WHERE username = ?`, seedAdminUsername)).To(Succeed())
		role, err := authPostgres.NewRoleRepository(db.SQL).ResolveRole(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(role).To(Equal(internal.RoleAdmin))
	})

	It("adds the demo department on request", func() {
		Expect(seed(ctx, db, bcrypt.MinCost, true)).To(Succeed())
		Expect(seed(ctx, db, bcrypt.MinCost, true)).To(Succeed())
		Expect(count(`SELECT COUNT(*) FROM department WHERE name = ? AND status = 'active'`, seedDepartment)).To(Equal(1))
	})

	It("rolls the schema back", func() {
		Expect(migrate(ctx, db, dir, true)).To(Succeed())
		Expect(count(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'employee'`)).To(Equal(0))
	})
})
